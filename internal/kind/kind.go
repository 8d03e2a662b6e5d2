// Package kind is the polymorphic registry of intention kinds: one
// entry per data source and phase, each exposing the seven
// operations the dispatcher drives generically. The admission,
// resumption, coalescing and archival mechanics are identical across
// kinds and live once in baseKind; what varies per kind is the raw
// counterpart it depends on, whether it is token-backed, and how it
// turns a Repo into a taskrunner.Input.Target.
package kind

import (
	"context"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/repository"
	"github.com/cauldronio/poolsched/internal/taskrunner"
)

// Kind is the contract the dispatcher drives for every intention kind.
type Kind interface {
	ID() domain.IntentionKind

	// Selectable returns up to max ready, unadmitted intentions of this
	// kind owned by userID. For token-backed kinds it first checks the
	// user has a ready token, without ever touching the intentions table
	// if not.
	Selectable(ctx context.Context, userID string, max int) ([]*domain.Intention, error)

	// CreatePrevious materializes and links the raw intention this kind
	// depends on. Returns (nil, nil) for kinds with no raw counterpart.
	CreatePrevious(ctx context.Context, self *domain.Intention) ([]*domain.Intention, error)

	// RunningJob looks for a sibling intention of the same kind and repo
	// already bound to a job and, if found and (for token-backed kinds)
	// a token can be attached, coalesces self onto it.
	RunningJob(ctx context.Context, self *domain.Intention) (*domain.Job, error)

	// CreateJob admits self onto a freshly created job, refusing
	// token-backed kinds with no eligible token.
	CreateJob(ctx context.Context, self *domain.Intention, workerID string) (*domain.Job, error)

	// NextJob claims a previously suspended, resumable job of this kind.
	NextJob(ctx context.Context, workerID string) (*domain.Job, error)

	// Run executes job against the repo behind self, handing the runner
	// whatever token secret the job has attached.
	Run(ctx context.Context, job *domain.Job, self *domain.Intention) taskrunner.Result

	// Archive freezes self as an ArchivedIntention with the given
	// status, tied to job's archived counterpart.
	Archive(ctx context.Context, self *domain.Intention, job *domain.Job, status domain.ArchiveStatus) (*domain.ArchivedIntention, error)
}

// Deps bundles every store and collaborator a kind needs. A single Deps
// value is shared by every kind in a Registry.
type Deps struct {
	Intentions repository.IntentionRepository
	Jobs       repository.JobRepository
	Tokens     repository.TokenRepository
	Repos      repository.RepoRepository
	Runner     taskrunner.TaskRunner
}
