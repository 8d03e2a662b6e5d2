package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/kind"
	"github.com/cauldronio/poolsched/internal/usecase"
)

type fakeScheduled struct {
	create func(ctx context.Context, s *domain.ScheduledIntention) (*domain.ScheduledIntention, error)
}

func (f *fakeScheduled) Create(ctx context.Context, s *domain.ScheduledIntention) (*domain.ScheduledIntention, error) {
	return f.create(ctx, s)
}
func (f *fakeScheduled) ClaimDue(ctx context.Context, workerID string, limit int) ([]*domain.ScheduledIntention, error) {
	panic("not implemented")
}
func (f *fakeScheduled) ChildrenOf(ctx context.Context, parentID string) ([]*domain.ScheduledIntention, error) {
	panic("not implemented")
}
func (f *fakeScheduled) Advance(ctx context.Context, id string, next *time.Time) error {
	panic("not implemented")
}
func (f *fakeScheduled) Release(ctx context.Context, ids []string) error {
	panic("not implemented")
}

func TestScheduledIntentionCreate_UnknownKind_Errors(t *testing.T) {
	u := usecase.NewScheduledIntentionUsecase(&fakeScheduled{}, kind.Registry{})
	_, err := u.Create(context.Background(), usecase.CreateScheduledIntentionInput{
		IntentionKind: domain.KindGitEnrich,
		UserID:        "user-1",
		ScheduledAt:   time.Now(),
	})
	if !errors.Is(err, domain.ErrUnknownIntentionKind) {
		t.Errorf("want ErrUnknownIntentionKind, got %v", err)
	}
}

func TestScheduledIntentionCreate_InvalidCronExpr_ReturnsErrInvalidCronExpr(t *testing.T) {
	registry := kind.Registry{domain.KindGitEnrich: &fakeKind{id: domain.KindGitEnrich}}
	u := usecase.NewScheduledIntentionUsecase(&fakeScheduled{}, registry)

	badExpr := "not a cron expression"
	_, err := u.Create(context.Background(), usecase.CreateScheduledIntentionInput{
		IntentionKind: domain.KindGitEnrich,
		UserID:        "user-1",
		ScheduledAt:   time.Now(),
		CronExpr:      &badExpr,
	})
	if !errors.Is(err, domain.ErrInvalidCronExpr) {
		t.Errorf("want ErrInvalidCronExpr, got %v", err)
	}
}

func TestScheduledIntentionCreate_ValidCronExpr_StoresRow(t *testing.T) {
	registry := kind.Registry{domain.KindGitEnrich: &fakeKind{id: domain.KindGitEnrich}}
	var captured *domain.ScheduledIntention
	repo := &fakeScheduled{
		create: func(_ context.Context, s *domain.ScheduledIntention) (*domain.ScheduledIntention, error) {
			captured = s
			s.ID = "scheduled-1"
			return s, nil
		},
	}
	u := usecase.NewScheduledIntentionUsecase(repo, registry)

	expr := "0 */6 * * *"
	at := time.Now()
	created, err := u.Create(context.Background(), usecase.CreateScheduledIntentionInput{
		IntentionKind: domain.KindGitEnrich,
		Kwargs:        map[string]string{"repo_id": "repo-1"},
		UserID:        "user-1",
		ScheduledAt:   at,
		CronExpr:      &expr,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "scheduled-1" {
		t.Errorf("ID = %q, want scheduled-1", created.ID)
	}
	if captured.CronExpr == nil || *captured.CronExpr != expr {
		t.Errorf("CronExpr not propagated to store call")
	}
	if captured.ScheduledAt == nil || !captured.ScheduledAt.Equal(at) {
		t.Errorf("ScheduledAt not propagated to store call")
	}
}

func TestScheduledIntentionCreate_RepoError_Propagates(t *testing.T) {
	registry := kind.Registry{domain.KindGitEnrich: &fakeKind{id: domain.KindGitEnrich}}
	repoErr := errors.New("db down")
	repo := &fakeScheduled{
		create: func(_ context.Context, _ *domain.ScheduledIntention) (*domain.ScheduledIntention, error) {
			return nil, repoErr
		},
	}
	u := usecase.NewScheduledIntentionUsecase(repo, registry)

	_, err := u.Create(context.Background(), usecase.CreateScheduledIntentionInput{
		IntentionKind: domain.KindGitEnrich,
		UserID:        "user-1",
		ScheduledAt:   time.Now(),
	})
	if !errors.Is(err, repoErr) {
		t.Errorf("want wrapped repoErr, got %v", err)
	}
}
