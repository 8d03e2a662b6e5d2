// Package scheduler implements the SchedWorker run loop: resume,
// admit, coalesce, execute, archive.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/email"
	"github.com/cauldronio/poolsched/internal/kind"
	"github.com/cauldronio/poolsched/internal/metrics"
	"github.com/cauldronio/poolsched/internal/repository"
	"github.com/cauldronio/poolsched/internal/taskrunner"
)

// Config tunes the dispatcher's admission phase and idle behavior.
type Config struct {
	TickInterval      time.Duration
	MaxUsers          int // default 4
	MaxIntentions     int // default 1, per user per tick
	ClaimedJobsFactor int // default 5: admit only while claimed jobs < factor * worker-count

	// LeaseTTL is the length of each lease renewal: while a runner is
	// executing, the dispatcher extends the job's lease to LeaseTTL from
	// now at half that interval. The lease ClaimResumable/CreateJob grant
	// at claim time is a fixed 10 minutes, whatever LeaseTTL is.
	LeaseTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		TickInterval:      3 * time.Second,
		MaxUsers:          4,
		MaxIntentions:     1,
		ClaimedJobsFactor: 5,
		LeaseTTL:          10 * time.Minute,
	}
}

// Dispatcher is one SchedWorker: a single Worker identity running the
// main loop alone, with no in-process concurrency beyond the lease
// heartbeat in keepLeaseAlive.
type Dispatcher struct {
	workerID   string
	kinds      kind.Registry
	intentions repository.IntentionRepository
	jobs       repository.JobRepository
	workers    repository.WorkerRepository
	users      repository.UserRepository
	periodic   *Periodic
	cfg        Config
	logger     *slog.Logger
	emailer    email.Sender
}

func NewDispatcher(workerID string, kinds kind.Registry, intentions repository.IntentionRepository, jobs repository.JobRepository, workers repository.WorkerRepository, users repository.UserRepository, periodic *Periodic, cfg Config, logger *slog.Logger, emailer email.Sender) *Dispatcher {
	return &Dispatcher{
		workerID:   workerID,
		kinds:      kinds,
		intentions: intentions,
		jobs:       jobs,
		workers:    workers,
		users:      users,
		periodic:   periodic,
		cfg:        cfg,
		logger:     logger.With("component", "dispatcher", "worker_id", workerID),
		emailer:    emailer,
	}
}

// Run drives the loop until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started", "tick_interval", d.cfg.TickInterval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher shut down")
			return
		default:
		}

		start := time.Now()
		ran := d.tick(ctx)
		metrics.TickDuration.Observe(time.Since(start).Seconds())
		metrics.TicksTotal.WithLabelValues(strconv.FormatBool(ran)).Inc()
		if !ran {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.cfg.TickInterval):
			}
		}
	}
}

// tick performs one pass of the main loop and reports whether a job ran,
// so Run can skip the idle sleep on a productive tick.
func (d *Dispatcher) tick(ctx context.Context) bool {
	d.periodic.Materialize(ctx, d.workerID)

	k, job := d.resume(ctx)
	if job == nil {
		k, job = d.admitNew(ctx)
	}
	if job == nil || job.WorkerID == nil || *job.WorkerID != d.workerID {
		return false
	}

	self, err := d.representativeIntention(ctx, job.ID)
	if err != nil {
		d.logger.Error("load representative intention", "job_id", job.ID, "error", err)
		return true
	}

	stopLease := d.keepLeaseAlive(ctx, job.ID)
	runStart := time.Now()
	res := k.Run(ctx, job, self)
	stopLease()
	metrics.JobExecutionDuration.WithLabelValues(string(k.ID())).Observe(time.Since(runStart).Seconds())
	d.postExecute(ctx, k, job, res)
	return true
}

// resume implements step 2: try next_job for each kind in priority
// order, stopping at the first success.
func (d *Dispatcher) resume(ctx context.Context) (kind.Kind, *domain.Job) {
	for _, k := range d.kinds.Ordered() {
		job, err := k.NextJob(ctx, d.workerID)
		if err != nil {
			d.logger.Error("next_job failed", "kind", k.ID(), "error", err)
			continue
		}
		if job != nil {
			metrics.IntentionsResumedTotal.WithLabelValues(string(k.ID())).Inc()
			return k, job
		}
	}
	return nil, nil
}

// admitNew implements step 3: bounded by the global claimed-job cap,
// pick candidate users, walk their selectable intentions in priority
// order, and either coalesce or admit each candidate onto a job.
func (d *Dispatcher) admitNew(ctx context.Context) (kind.Kind, *domain.Job) {
	claimed, err := d.jobs.CountClaimed(ctx)
	if err != nil {
		d.logger.Error("count claimed jobs", "error", err)
		return nil, nil
	}
	workerCount, err := d.workers.Count(ctx)
	if err != nil {
		d.logger.Error("count workers", "error", err)
		return nil, nil
	}
	if claimed >= d.cfg.ClaimedJobsFactor*max(workerCount, 1) {
		return nil, nil
	}

	users, err := d.intentions.UsersWithReadyIntentions(ctx, d.cfg.MaxUsers)
	if err != nil {
		d.logger.Error("list users with ready intentions", "error", err)
		return nil, nil
	}

	for _, userID := range users {
		accumulated := 0
		for _, k := range d.kinds.Ordered() {
			if accumulated >= d.cfg.MaxIntentions {
				break
			}
			candidates, err := k.Selectable(ctx, userID, d.cfg.MaxIntentions-accumulated)
			if err != nil {
				d.logger.Error("selectable failed", "kind", k.ID(), "user_id", userID, "error", err)
				continue
			}
			for _, candidate := range candidates {
				accumulated++

				coalesced, err := k.RunningJob(ctx, candidate)
				if err != nil {
					d.logger.Error("running_job failed", "kind", k.ID(), "intention_id", candidate.ID, "error", err)
					continue
				}
				if coalesced != nil {
					// Another worker owns that job; this tick does not
					// execute it.
					metrics.IntentionsCoalescedTotal.WithLabelValues(string(k.ID())).Inc()
					continue
				}

				job, err := k.CreateJob(ctx, candidate, d.workerID)
				if err != nil {
					d.logger.Error("create_job failed", "kind", k.ID(), "intention_id", candidate.ID, "error", err)
					continue
				}
				if job != nil {
					metrics.IntentionsAdmittedTotal.WithLabelValues(string(k.ID())).Inc()
					return k, job
				}
			}
		}
	}
	return nil, nil
}

func (d *Dispatcher) postExecute(ctx context.Context, k kind.Kind, job *domain.Job, res taskrunner.Result) {
	switch res.Outcome {
	case taskrunner.Completed:
		d.archive(ctx, k, job, domain.ArchiveOK)
	case taskrunner.Suspended:
		metrics.JobsSuspendedTotal.WithLabelValues(string(k.ID())).Inc()
		if err := d.jobs.Release(ctx, job.ID); err != nil {
			d.logger.Error("release suspended job", "job_id", job.ID, "error", err)
		}
	case taskrunner.Failed:
		d.logger.Error("job failed", "job_id", job.ID, "error", res.Err)
		d.archive(ctx, k, job, domain.ArchiveError)
	}
}

func (d *Dispatcher) archive(ctx context.Context, k kind.Kind, job *domain.Job, status domain.ArchiveStatus) {
	intentions, err := d.intentions.IntentionsForJob(ctx, job.ID)
	if err != nil {
		d.logger.Error("load intentions for job", "job_id", job.ID, "error", err)
		return
	}
	for _, in := range intentions {
		if _, err := k.Archive(ctx, in, job, status); err != nil {
			d.logger.Error("archive intention", "intention_id", in.ID, "job_id", job.ID, "error", err)
			continue
		}
		metrics.JobsArchivedTotal.WithLabelValues(string(k.ID()), string(status)).Inc()
		if status == domain.ArchiveError && in.NotifyOnFailure {
			d.notifyFailure(ctx, in)
		}
	}
}

// notifyFailure emails the owner of in once it archives with ERROR, if
// they opted in via NotifyOnFailure.
func (d *Dispatcher) notifyFailure(ctx context.Context, in *domain.Intention) {
	user, err := d.users.FindByID(ctx, in.UserID)
	if err != nil {
		d.logger.Error("load user for failure notification", "user_id", in.UserID, "intention_id", in.ID, "error", err)
		return
	}
	subject := fmt.Sprintf("%s analysis failed", in.Kind)
	body := fmt.Sprintf("Your %s analysis for repo %s failed and has been archived.", in.Kind, in.RepoID)
	if err := d.emailer.Send(ctx, user.Email, subject, body); err != nil {
		d.logger.Error("send failure notification", "user_id", in.UserID, "intention_id", in.ID, "error", err)
	}
}

func (d *Dispatcher) representativeIntention(ctx context.Context, jobID string) (*domain.Intention, error) {
	intentions, err := d.intentions.IntentionsForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(intentions) == 0 {
		return nil, fmt.Errorf("job %s has no bound intentions", jobID)
	}
	return intentions[0], nil
}

// keepLeaseAlive renews jobID's lease at half the TTL for as long as a
// runner is executing it, the one spot the otherwise single-threaded
// loop runs a second goroutine: without it a runner slower than the
// lease TTL would have its job reaped out from under it mid-execution.
// The returned func must be called once the runner returns.
func (d *Dispatcher) keepLeaseAlive(ctx context.Context, jobID string) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(d.cfg.LeaseTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := d.jobs.RenewLease(ctx, jobID, int(d.cfg.LeaseTTL.Seconds())); err != nil {
					d.logger.Error("renew lease", "job_id", jobID, "error", err)
				}
			}
		}
	}()
	return func() { close(done) }
}
