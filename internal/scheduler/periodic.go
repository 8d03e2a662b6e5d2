package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/kind"
	"github.com/cauldronio/poolsched/internal/metrics"
	"github.com/cauldronio/poolsched/internal/repository"
	"github.com/robfig/cron/v3"
)

// Periodic materializes due ScheduledIntention rows into real
// intentions, recursing into dependents and re-arming repeating rows.
type Periodic struct {
	scheduled  repository.ScheduledIntentionRepository
	intentions repository.IntentionRepository
	kinds      kind.Registry
	logger     *slog.Logger
}

func NewPeriodic(scheduled repository.ScheduledIntentionRepository, intentions repository.IntentionRepository, kinds kind.Registry, logger *slog.Logger) *Periodic {
	return &Periodic{
		scheduled:  scheduled,
		intentions: intentions,
		kinds:      kinds,
		logger:     logger.With("component", "periodic"),
	}
}

// Materialize claims every due row for workerID and instantiates it.
// A failure on one row is logged and does not abort the batch; the
// batch always ends with every claimed row released (worker = null),
// whether it succeeded or not.
func (p *Periodic) Materialize(ctx context.Context, workerID string) {
	due, err := p.scheduled.ClaimDue(ctx, workerID, 100)
	if err != nil {
		p.logger.Error("claim due scheduled intentions", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	ids := make([]string, 0, len(due))
	for _, s := range due {
		ids = append(ids, s.ID)
	}
	defer func() {
		if err := p.scheduled.Release(ctx, ids); err != nil {
			p.logger.Error("release scheduled intentions", "error", err)
		}
	}()

	for _, s := range due {
		if err := p.materializeOne(ctx, s, nil); err != nil {
			p.logger.Error("materialize scheduled intention", "id", s.ID, "kind", s.IntentionKind, "error", err)
			metrics.PeriodicMaterializedTotal.WithLabelValues("error").Inc()
			continue
		}
		metrics.PeriodicMaterializedTotal.WithLabelValues("ok").Inc()
	}
}

func (p *Periodic) materializeOne(ctx context.Context, s *domain.ScheduledIntention, parent *domain.Intention) error {
	k, ok := p.kinds.Get(s.IntentionKind)
	if !ok {
		return fmt.Errorf("unknown intention kind %q", s.IntentionKind)
	}

	repoID, ok := s.Kwargs["repo_id"]
	if !ok {
		return fmt.Errorf("scheduled intention missing repo_id kwarg")
	}

	created, err := p.intentions.GetOrCreate(ctx, s.IntentionKind, s.UserID, repoID)
	if err != nil {
		return fmt.Errorf("get or create intention: %w", err)
	}
	if _, err := k.CreatePrevious(ctx, created); err != nil {
		return fmt.Errorf("create previous: %w", err)
	}

	if parent != nil {
		if err := p.intentions.AddPrevious(ctx, parent.ID, created.ID); err != nil {
			return fmt.Errorf("link to parent: %w", err)
		}
	}

	children, err := p.scheduled.ChildrenOf(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("load children: %w", err)
	}
	for _, child := range children {
		if err := p.materializeOne(ctx, child, created); err != nil {
			p.logger.Error("materialize child scheduled intention", "id", child.ID, "parent_id", s.ID, "error", err)
		}
	}

	if s.ScheduledAt != nil {
		if err := p.scheduled.Advance(ctx, s.ID, p.nextFireTime(s)); err != nil {
			return fmt.Errorf("advance scheduled_at: %w", err)
		}
	}
	return nil
}

// nextFireTime re-arms a recurring row. CronExpr takes precedence for
// sub-daily schedules; RepeatHours is the flat-interval fallback. A
// nil return means one-shot: materializeOne clears scheduled_at, so the
// row is never claimed as due again.
func (p *Periodic) nextFireTime(s *domain.ScheduledIntention) *time.Time {
	if s.CronExpr != nil {
		parsed, err := cron.ParseStandard(*s.CronExpr)
		if err != nil {
			p.logger.Error("invalid cron expression", "id", s.ID, "cron_expr", *s.CronExpr, "error", err)
		} else {
			next := parsed.Next(*s.ScheduledAt)
			return &next
		}
	}
	if s.RepeatHours != nil && *s.RepeatHours > 0 {
		next := s.ScheduledAt.Add(time.Duration(*s.RepeatHours) * time.Hour)
		return &next
	}
	return nil
}
