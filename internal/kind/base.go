package kind

import (
	"context"
	"errors"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/metrics"
	"github.com/cauldronio/poolsched/internal/taskrunner"
)

// tokenResetGrace pads a runner's requested rate-limit backoff so a
// token isn't picked up right as the remote window resets.
const tokenResetGrace = 2 * time.Minute

// targetFunc turns a resolved Repo into the string a taskrunner.Input
// needs, per kind (a clone URL for Git, "owner/name" for GitHub/GitLab,
// a group slug for Meetup).
type targetFunc func(repo *domain.Repo) string

// baseKind implements every Kind operation generically, parameterized by
// the raw counterpart it depends on (empty for raw kinds themselves),
// whether it is token-backed, and how it names its target. Every
// concrete kind in this package is baseKind configured differently; none
// override its methods.
type baseKind struct {
	id      domain.IntentionKind
	rawKind domain.IntentionKind // "" for raw kinds

	tokenKind domain.TokenKind
	hasToken  bool

	target targetFunc

	deps Deps
}

func newBase(id, rawKind domain.IntentionKind, target targetFunc, deps Deps) baseKind {
	tk, has := domain.TokenKindFor(id)
	return baseKind{
		id:        id,
		rawKind:   rawKind,
		tokenKind: tk,
		hasToken:  has,
		target:    target,
		deps:      deps,
	}
}

func (b *baseKind) ID() domain.IntentionKind { return b.id }

func (b *baseKind) Selectable(ctx context.Context, userID string, max int) ([]*domain.Intention, error) {
	if b.hasToken {
		ready, err := b.deps.Tokens.HasReady(ctx, userID, b.tokenKind)
		if err != nil {
			return nil, err
		}
		if !ready {
			metrics.TokensExhaustedTotal.WithLabelValues(string(b.tokenKind)).Inc()
			return nil, nil
		}
	}
	return b.deps.Intentions.Selectable(ctx, b.id, userID, max)
}

func (b *baseKind) CreatePrevious(ctx context.Context, self *domain.Intention) ([]*domain.Intention, error) {
	if b.rawKind == "" {
		return nil, nil
	}
	prev, err := b.deps.Intentions.GetOrCreate(ctx, b.rawKind, self.UserID, self.RepoID)
	if err != nil {
		return nil, err
	}
	if err := b.deps.Intentions.AddPrevious(ctx, self.ID, prev.ID); err != nil {
		return nil, err
	}
	self.Previous = append(self.Previous, prev.ID)
	return []*domain.Intention{prev}, nil
}

func (b *baseKind) RunningJob(ctx context.Context, self *domain.Intention) (*domain.Job, error) {
	job, err := b.deps.Intentions.RunningJobForRepo(ctx, b.id, self.RepoID)
	if errors.Is(err, domain.ErrJobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if b.hasToken {
		eligible, err := b.deps.Tokens.EligibleForUser(ctx, self.UserID, b.tokenKind)
		if err != nil {
			return nil, err
		}
		attached := 0
		for _, t := range eligible {
			if err := b.deps.Tokens.Attach(ctx, t.ID, job.ID); err != nil {
				return nil, err
			}
			attached++
		}
		if attached == 0 {
			metrics.TokensExhaustedTotal.WithLabelValues(string(b.tokenKind)).Inc()
			return nil, nil
		}
	}

	if err := b.deps.Intentions.BindJob(ctx, self.ID, job.ID); err != nil {
		if errors.Is(err, domain.ErrAlreadyAdmitted) || errors.Is(err, domain.ErrLockContention) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

func (b *baseKind) CreateJob(ctx context.Context, self *domain.Intention, workerID string) (*domain.Job, error) {
	var eligible []*domain.Token
	if b.hasToken {
		var err error
		eligible, err = b.deps.Tokens.EligibleForUser(ctx, self.UserID, b.tokenKind)
		if err != nil {
			return nil, err
		}
		if len(eligible) == 0 {
			metrics.TokensExhaustedTotal.WithLabelValues(string(b.tokenKind)).Inc()
			return nil, nil
		}
	}

	job, err := b.deps.Intentions.CreateJob(ctx, self.ID, workerID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyAdmitted) || errors.Is(err, domain.ErrLockContention) {
			return nil, nil
		}
		return nil, err
	}

	for _, t := range eligible {
		if err := b.deps.Tokens.Attach(ctx, t.ID, job.ID); err != nil {
			return nil, err
		}
	}
	return job, nil
}

func (b *baseKind) NextJob(ctx context.Context, workerID string) (*domain.Job, error) {
	job, err := b.deps.Jobs.ClaimResumable(ctx, b.id, workerID)
	if errors.Is(err, domain.ErrJobNotFound) || errors.Is(err, domain.ErrLockContention) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (b *baseKind) Run(ctx context.Context, job *domain.Job, self *domain.Intention) taskrunner.Result {
	repo, err := b.deps.Repos.GetByID(ctx, self.RepoID)
	if err != nil {
		return taskrunner.Result{Outcome: taskrunner.Failed, Err: err}
	}

	var secret string
	var tok *domain.Token
	if b.hasToken {
		tok, err = b.deps.Tokens.ReadyForJob(ctx, job.ID)
		if err != nil {
			return taskrunner.Result{Outcome: taskrunner.Failed, Err: err}
		}
		secret = tok.Secret
	}

	res := b.deps.Runner.Run(ctx, taskrunner.Input{
		Kind:        b.id,
		RepoID:      self.RepoID,
		Target:      b.target(repo),
		TokenSecret: secret,
	})

	if tok != nil {
		_ = b.deps.Tokens.RecordUsage(ctx, &domain.JobTokenUsage{JobID: job.ID, TokenID: tok.ID, UsedAt: time.Now()})
		if res.Outcome == taskrunner.Suspended {
			_ = b.deps.Tokens.SetResetAt(ctx, tok.ID, time.Now().Add(time.Duration(res.RetryAfterMinutes)*time.Minute+tokenResetGrace))
		}
	}

	return res
}

func (b *baseKind) Archive(ctx context.Context, self *domain.Intention, job *domain.Job, status domain.ArchiveStatus) (*domain.ArchivedIntention, error) {
	return b.deps.Intentions.Archive(ctx, self, status, job.ID)
}
