package repository

import (
	"context"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
)

// ScheduledIntentionRepository is the store-facing port for the periodic
// scheduler.
type ScheduledIntentionRepository interface {
	Create(ctx context.Context, s *domain.ScheduledIntention) (*domain.ScheduledIntention, error)

	// ClaimDue bulk-updates every row with ScheduledAt <= now and no
	// owning worker to workerID, then returns those rows, in one
	// transaction.
	ClaimDue(ctx context.Context, workerID string, limit int) ([]*domain.ScheduledIntention, error)

	// ChildrenOf returns rows whose DependsOn is parentID.
	ChildrenOf(ctx context.Context, parentID string) ([]*domain.ScheduledIntention, error)

	// Advance sets ScheduledAt to next; a nil next clears it, so the row
	// is no longer claimed as due. The claim itself is left to Release.
	Advance(ctx context.Context, id string, next *time.Time) error

	// Release clears WorkerID on every row in ids, used at the end of a
	// batch regardless of per-row success.
	Release(ctx context.Context, ids []string) error
}
