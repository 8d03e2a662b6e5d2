package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScheduledIntentionRepository struct {
	pool *pgxpool.Pool
}

func NewScheduledIntentionRepository(pool *pgxpool.Pool) *ScheduledIntentionRepository {
	return &ScheduledIntentionRepository{pool: pool}
}

func (r *ScheduledIntentionRepository) Create(ctx context.Context, s *domain.ScheduledIntention) (*domain.ScheduledIntention, error) {
	kwargs, err := json.Marshal(s.Kwargs)
	if err != nil {
		return nil, fmt.Errorf("marshal kwargs: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO scheduled_intentions (
			intention_kind, kwargs, user_id, scheduled_at, depends_on, repeat_hours, cron_expr
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, intention_kind, kwargs, user_id, scheduled_at, depends_on, repeat_hours, cron_expr, worker_id`,
		s.IntentionKind, kwargs, s.UserID, s.ScheduledAt, s.DependsOn, s.RepeatHours, s.CronExpr)
	return scanScheduledIntention(row)
}

// ClaimDue bulk-claims every due, unclaimed row for workerID in one
// statement, so two dispatchers ticking at once never materialize the
// same row twice.
func (r *ScheduledIntentionRepository) ClaimDue(ctx context.Context, workerID string, limit int) ([]*domain.ScheduledIntention, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE scheduled_intentions
		SET    worker_id = $1
		WHERE id IN (
			SELECT id FROM scheduled_intentions
			WHERE worker_id IS NULL AND scheduled_at IS NOT NULL AND scheduled_at <= NOW()
			ORDER BY scheduled_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, intention_kind, kwargs, user_id, scheduled_at, depends_on, repeat_hours, cron_expr, worker_id`,
		workerID, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due scheduled intentions: %w", err)
	}
	defer rows.Close()

	var out []*domain.ScheduledIntention
	for rows.Next() {
		s, err := scanScheduledIntention(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScheduledIntentionRepository) ChildrenOf(ctx context.Context, parentID string) ([]*domain.ScheduledIntention, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, intention_kind, kwargs, user_id, scheduled_at, depends_on, repeat_hours, cron_expr, worker_id
		FROM scheduled_intentions WHERE depends_on = $1`, parentID)
	if err != nil {
		return nil, fmt.Errorf("children of scheduled intention: %w", err)
	}
	defer rows.Close()

	var out []*domain.ScheduledIntention
	for rows.Next() {
		s, err := scanScheduledIntention(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScheduledIntentionRepository) Advance(ctx context.Context, id string, next *time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE scheduled_intentions SET scheduled_at = $2 WHERE id = $1`, id, next)
	if err != nil {
		return fmt.Errorf("advance scheduled intention: %w", err)
	}
	return nil
}

// Release clears worker_id on every row in ids. Called at the end of a
// claim batch regardless of per-row success, so a row whose
// materialization failed mid-batch is not stuck claimed forever.
func (r *ScheduledIntentionRepository) Release(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE scheduled_intentions SET worker_id = NULL WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("release scheduled intentions: %w", err)
	}
	return nil
}

func scanScheduledIntention(row rowScanner) (*domain.ScheduledIntention, error) {
	var s domain.ScheduledIntention
	var kwargs []byte
	err := row.Scan(&s.ID, &s.IntentionKind, &kwargs, &s.UserID, &s.ScheduledAt, &s.DependsOn, &s.RepeatHours, &s.CronExpr, &s.WorkerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduledIntentionNotFound
		}
		return nil, fmt.Errorf("scan scheduled intention: %w", err)
	}
	if len(kwargs) > 0 {
		if err := json.Unmarshal(kwargs, &s.Kwargs); err != nil {
			return nil, fmt.Errorf("unmarshal kwargs: %w", err)
		}
	}
	return &s, nil
}
