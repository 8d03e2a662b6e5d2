package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cauldronio/poolsched/internal/metrics"
	"github.com/cauldronio/poolsched/internal/repository"
)

// Reaper releases jobs whose lease has expired without the owning
// dispatcher renewing it: an un-renewed lease means the holder is
// gone (crashed or killed mid-job), so the job goes back to the pool
// for another dispatcher's next_job to pick up.
type Reaper struct {
	repo     repository.JobRepository
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func NewReaper(repo repository.JobRepository, interval time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		repo:     repo,
		interval: interval,
		batch:    100,
		logger:   logger.With("component", "reaper"),
	}
}

func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reaper started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper shut down")
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

func (r *Reaper) reap(ctx context.Context) {
	released, err := r.repo.ReleaseExpiredLeases(ctx, r.batch)
	if err != nil {
		r.logger.Error("release expired leases", "error", err)
		return
	}
	if released > 0 {
		metrics.ReaperReleasedTotal.Add(float64(released))
		r.logger.Info("released jobs with expired leases", "count", released)
	}
}
