package domain

// IntentionKind identifies which data source and phase (raw vs enrich)
// an intention belongs to.
type IntentionKind string

const (
	KindGitHubEnrich IntentionKind = "github_enrich"
	KindGitLabEnrich IntentionKind = "gitlab_enrich"
	KindGitEnrich    IntentionKind = "git_enrich"
	KindMeetupEnrich IntentionKind = "meetup_enrich"
	KindGitHubRaw    IntentionKind = "github_raw"
	KindGitLabRaw    IntentionKind = "gitlab_raw"
	KindGitRaw       IntentionKind = "git_raw"
	KindMeetupRaw    IntentionKind = "meetup_raw"
)

// Priority is the dispatcher's consultation order for both resumption
// (next_job) and admission (selectable): enrich before raw, and within a
// phase, fastest targets first. Advancing in-flight pipelines to their
// final state reduces tail latency; raw work is cheap to re-enqueue if
// preempted.
var Priority = []IntentionKind{
	KindGitHubEnrich, KindGitLabEnrich, KindGitEnrich, KindMeetupEnrich,
	KindGitHubRaw, KindGitLabRaw, KindGitRaw, KindMeetupRaw,
}

// TokenKind identifies the API credential family behind a token-backed
// intention kind.
type TokenKind string

const (
	TokenGitHub TokenKind = "github"
	TokenGitLab TokenKind = "gitlab"
	TokenMeetup TokenKind = "meetup"
)

// MaxJobsToken caps how many concurrent jobs a single token may be
// attached to, per token kind.
var MaxJobsToken = map[TokenKind]int{
	TokenGitHub: 3,
	TokenGitLab: 3,
	TokenMeetup: 1,
}

// TokenKindFor reports the token kind backing an intention kind, and
// whether the kind is token-backed at all. Git kinds need no token.
func TokenKindFor(k IntentionKind) (TokenKind, bool) {
	switch k {
	case KindGitHubRaw, KindGitHubEnrich:
		return TokenGitHub, true
	case KindGitLabRaw, KindGitLabEnrich:
		return TokenGitLab, true
	case KindMeetupRaw, KindMeetupEnrich:
		return TokenMeetup, true
	default:
		return "", false
	}
}

// IsEnrich reports whether a kind is the enrich phase of its pipeline.
func IsEnrich(k IntentionKind) bool {
	switch k {
	case KindGitHubEnrich, KindGitLabEnrich, KindGitEnrich, KindMeetupEnrich:
		return true
	default:
		return false
	}
}

// RawCounterpart returns the raw kind that an enrich kind depends on.
// Returns "" for raw kinds.
func RawCounterpart(k IntentionKind) IntentionKind {
	switch k {
	case KindGitHubEnrich:
		return KindGitHubRaw
	case KindGitLabEnrich:
		return KindGitLabRaw
	case KindGitEnrich:
		return KindGitRaw
	case KindMeetupEnrich:
		return KindMeetupRaw
	default:
		return ""
	}
}
