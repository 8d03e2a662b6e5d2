package repository

import (
	"context"

	"github.com/cauldronio/poolsched/internal/domain"
)

// JobRepository is the store-facing port for the Job aggregate.
type JobRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Job, error)

	// ClaimResumable implements next_job: atomically finds a job with no
	// owning worker that is bound to an intention of kind and whose
	// attached tokens (if any) are all ready, and claims it by setting
	// WorkerID. Returns domain.ErrJobNotFound if nothing is resumable.
	ClaimResumable(ctx context.Context, kind domain.IntentionKind, workerID string) (*domain.Job, error)

	// Release clears WorkerID (suspend path): the job becomes resumable
	// again on a future tick, possibly by a different worker.
	Release(ctx context.Context, jobID string) error

	// Delete removes the job row after archival.
	Delete(ctx context.Context, jobID string) error

	// CountClaimed returns the number of jobs currently owned by any
	// worker, used by the dispatcher's global admission cap.
	CountClaimed(ctx context.Context) (int, error)

	// RenewLease extends a claimed job's lease, called periodically by
	// whichever worker holds it so the reaper doesn't mistake live work
	// for an abandoned job.
	RenewLease(ctx context.Context, jobID string, ttlSeconds int) error

	// ReleaseExpiredLeases finds jobs whose lease has expired and clears
	// their WorkerID so another worker may resume them. Returns the
	// number of jobs released.
	ReleaseExpiredLeases(ctx context.Context, limit int) (int, error)
}
