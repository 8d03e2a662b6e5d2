package domain

import (
	"errors"
	"time"
)

var (
	ErrScheduledIntentionNotFound = errors.New("scheduled intention not found")
	ErrInvalidCronExpr            = errors.New("invalid cron expression")
)

// ScheduledIntention describes a future or recurring intention creation.
// A worker materializes it into a real Intention of IntentionKind once
// ScheduledAt is due, using Kwargs as constructor arguments.
type ScheduledIntention struct {
	ID            string
	IntentionKind IntentionKind
	Kwargs        map[string]string
	UserID        string

	// ScheduledAt is nil for intentions that only exist to be chained
	// via DependsOn (no independent firing time of their own), and for
	// one-shot rows that have already fired.
	ScheduledAt *time.Time

	// DependsOn names the parent ScheduledIntention; when the parent
	// fires, this row is materialized too and its intention is added to
	// the Previous set of the parent's freshly-created intention, which
	// then waits for it.
	DependsOn *string

	// RepeatHours re-arms ScheduledAt after each firing. Nil or 0 means
	// one-shot.
	RepeatHours *int

	// CronExpr is an optional supplement to RepeatHours: when set, the
	// next ScheduledAt is computed from a cron expression (sub-daily
	// schedules) instead of a flat hour increment.
	CronExpr *string

	// WorkerID is the claim field: non-nil means some dispatcher currently
	// owns materializing this row, preventing double-processing.
	WorkerID *string
}

// Due reports whether the row is ready to be claimed and materialized.
func (s *ScheduledIntention) Due(now time.Time) bool {
	return s.WorkerID == nil && s.ScheduledAt != nil && !s.ScheduledAt.After(now)
}
