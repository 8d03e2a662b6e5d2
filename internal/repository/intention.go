package repository

import (
	"context"

	"github.com/cauldronio/poolsched/internal/domain"
)

// IntentionRepository is the store-facing port for the Intention
// aggregate. Implementations must take admission and resumption
// decisions under a non-blocking exclusive lock on the chosen row,
// returning domain.ErrLockContention on contention so the caller can
// move on to a different candidate.
type IntentionRepository interface {
	// Create inserts a new intention with an empty Previous set.
	Create(ctx context.Context, in *domain.Intention) (*domain.Intention, error)

	// GetOrCreate returns the existing intention for (kind, userID,
	// repoID) or creates it. Concurrent callers racing to create the
	// same row both observe the same final row (get-or-create via a
	// single upsert on the unique constraint).
	GetOrCreate(ctx context.Context, kind domain.IntentionKind, userID, repoID string) (*domain.Intention, error)

	GetByID(ctx context.Context, id string) (*domain.Intention, error)

	// AddPrevious appends previousID to self's Previous set.
	AddPrevious(ctx context.Context, id, previousID string) error

	// Selectable returns up to max intentions of kind owned by userID
	// that have no bound job and an empty Previous set. Callers that
	// need a token-readiness pre-check perform it before calling
	// Selectable (see internal/kind).
	Selectable(ctx context.Context, kind domain.IntentionKind, userID string, max int) ([]*domain.Intention, error)

	// UsersWithReadyIntentions returns up to limit distinct user IDs
	// that own at least one intention with an empty Previous set and no
	// bound job, in no particular order. Capping this list, rather than
	// the intentions themselves, is what keeps one prolific user from
	// starving everyone else's admission chances in a single tick.
	UsersWithReadyIntentions(ctx context.Context, limit int) ([]string, error)

	// RunningJobForRepo implements the coalescing lookup of running_job:
	// find a sibling intention of the same kind and repo with a job
	// already bound, and return that job. Returns domain.ErrJobNotFound
	// if no sibling is running.
	RunningJobForRepo(ctx context.Context, kind domain.IntentionKind, repoID string) (*domain.Job, error)

	// BindJob atomically binds id to an existing jobID (the coalescing
	// path of running_job), failing with domain.ErrAlreadyAdmitted if the
	// row already carries a job (lost the admission race) and
	// domain.ErrLockContention if the row could not be locked without
	// blocking.
	BindJob(ctx context.Context, id, jobID string) error

	// CreateJob creates a brand new job owned by workerID and binds it to
	// id in the same transaction (the create_job path): locks id, and if
	// it already carries a job returns domain.ErrAlreadyAdmitted without
	// creating anything. Returns domain.ErrLockContention if the row
	// could not be locked without blocking.
	CreateJob(ctx context.Context, id, workerID string) (*domain.Job, error)

	// IntentionsForJob lists every intention currently bound to jobID,
	// used by the dispatcher to fan archival out to every coalesced
	// intention once the job finishes.
	IntentionsForJob(ctx context.Context, jobID string) ([]*domain.Intention, error)

	// Archive inserts the frozen ArchivedIntention row and deletes the
	// live intention, atomically.
	Archive(ctx context.Context, in *domain.Intention, status domain.ArchiveStatus, archJobID string) (*domain.ArchivedIntention, error)

	// ListArchived supports the read-only administrative archive
	// listing, paginated by a (completed_at, id) keyset cursor.
	ListArchived(ctx context.Context, input ListArchivedInput) ([]*domain.ArchivedIntention, error)
}

type ListArchivedInput struct {
	UserID     string
	CursorTime *string
	CursorID   string
	Limit      int
}
