package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/kind"
	"github.com/cauldronio/poolsched/internal/repository"
	"github.com/robfig/cron/v3"
)

// ScheduledIntentionUsecase validates and stores the rows a Periodic
// materializer later claims.
type ScheduledIntentionUsecase struct {
	repo  repository.ScheduledIntentionRepository
	kinds kind.Registry
}

func NewScheduledIntentionUsecase(repo repository.ScheduledIntentionRepository, kinds kind.Registry) *ScheduledIntentionUsecase {
	return &ScheduledIntentionUsecase{repo: repo, kinds: kinds}
}

type CreateScheduledIntentionInput struct {
	IntentionKind domain.IntentionKind
	Kwargs        map[string]string
	UserID        string
	ScheduledAt   time.Time
	DependsOn     *string
	RepeatHours   *int
	CronExpr      *string
}

func (u *ScheduledIntentionUsecase) Create(ctx context.Context, input CreateScheduledIntentionInput) (*domain.ScheduledIntention, error) {
	if _, ok := u.kinds.Get(input.IntentionKind); !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownIntentionKind, input.IntentionKind)
	}
	if input.CronExpr != nil {
		if _, err := cron.ParseStandard(*input.CronExpr); err != nil {
			return nil, domain.ErrInvalidCronExpr
		}
	}

	scheduledAt := input.ScheduledAt
	s := &domain.ScheduledIntention{
		IntentionKind: input.IntentionKind,
		Kwargs:        input.Kwargs,
		UserID:        input.UserID,
		ScheduledAt:   &scheduledAt,
		DependsOn:     input.DependsOn,
		RepeatHours:   input.RepeatHours,
		CronExpr:      input.CronExpr,
	}

	created, err := u.repo.Create(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("create scheduled intention: %w", err)
	}
	return created, nil
}
