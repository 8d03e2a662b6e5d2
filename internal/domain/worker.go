package domain

import (
	"errors"
	"time"
)

var ErrWorkerNotFound = errors.New("worker not found")

type WorkerStatus string

const (
	WorkerUp   WorkerStatus = "up"
	WorkerDown WorkerStatus = "down"
)

// Worker identifies a running scheduler process. A worker that crashes
// or stops responding is never flipped to down — liveness is inferred
// operationally by the absence of recent activity. The only automatic
// MarkDown is schedworker marking its own row down on graceful shutdown.
type Worker struct {
	ID        string
	Hostname  string
	Status    WorkerStatus
	CreatedAt time.Time
}
