package kind

import "github.com/cauldronio/poolsched/internal/domain"

// Registry maps every intention kind to its Kind implementation.
type Registry map[domain.IntentionKind]Kind

// NewRegistry builds the fixed set of eight kinds over a shared Deps.
func NewRegistry(deps Deps) Registry {
	return Registry{
		domain.KindGitRaw:       newGitRaw(deps),
		domain.KindGitEnrich:    newGitEnrich(deps),
		domain.KindGitHubRaw:    newGitHubRaw(deps),
		domain.KindGitHubEnrich: newGitHubEnrich(deps),
		domain.KindGitLabRaw:    newGitLabRaw(deps),
		domain.KindGitLabEnrich: newGitLabEnrich(deps),
		domain.KindMeetupRaw:    newMeetupRaw(deps),
		domain.KindMeetupEnrich: newMeetupEnrich(deps),
	}
}

// Ordered returns every kind in dispatcher consultation order: enrich
// before raw.
func (r Registry) Ordered() []Kind {
	out := make([]Kind, 0, len(domain.Priority))
	for _, k := range domain.Priority {
		out = append(out, r[k])
	}
	return out
}

// Get looks up a kind by ID, used by the intention-creation usecases
// to dispatch on the kind named in the API request.
func (r Registry) Get(k domain.IntentionKind) (Kind, bool) {
	v, ok := r[k]
	return v, ok
}
