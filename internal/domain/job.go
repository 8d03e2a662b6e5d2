package domain

import (
	"errors"
	"time"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrJobAlreadyClaimed = errors.New("job already claimed by another worker")
)

// Job is a concrete unit of running work. At most one worker owns a job
// at a time; that invariant is enforced by the admission/resumption
// transaction, not by this type.
type Job struct {
	ID          string
	CreatedAt   time.Time
	WorkerID    *string // nil => unclaimed, resumable
	LogLocation *string

	// LeaseExpiresAt backs the operational reaper (open question: "add a
	// lease with TTL and a background sweeper"). Nil until a worker
	// claims the job.
	LeaseExpiresAt *time.Time
}

// Resumable reports whether the job may be claimed by any worker via
// next_job.
func (j *Job) Resumable() bool {
	return j.WorkerID == nil
}
