package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) HasReady(ctx context.Context, userID string, kind domain.TokenKind) (bool, error) {
	var ready bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM tokens t
			WHERE t.user_id = $1 AND t.kind = $2 AND t.reset_at <= NOW()
			  AND (SELECT count(*) FROM job_tokens jt WHERE jt.token_id = t.id) < $3
		)`, userID, kind, domain.MaxJobsToken[kind]).Scan(&ready)
	if err != nil {
		return false, fmt.Errorf("check ready token: %w", err)
	}
	return ready, nil
}

func (r *TokenRepository) HasAny(ctx context.Context, userID string, kind domain.TokenKind) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tokens WHERE user_id = $1 AND kind = $2)`,
		userID, kind).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check any token: %w", err)
	}
	return exists, nil
}

// EligibleForUser locks every candidate token FOR UPDATE so the caller
// may safely attach jobs to it without a concurrent admission over-
// committing the same token past MaxJobsToken.
func (r *TokenRepository) EligibleForUser(ctx context.Context, userID string, kind domain.TokenKind) ([]*domain.Token, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.kind, t.user_id, t.secret, t.reset_at
		FROM tokens t
		WHERE t.user_id = $1 AND t.kind = $2 AND t.reset_at <= NOW()
		  AND (SELECT count(*) FROM job_tokens jt WHERE jt.token_id = t.id) < $3
		ORDER BY t.id
		FOR UPDATE OF t SKIP LOCKED`,
		userID, kind, domain.MaxJobsToken[kind])
	if err != nil {
		return nil, fmt.Errorf("eligible tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *TokenRepository) Attach(ctx context.Context, tokenID, jobID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO job_tokens (token_id, job_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		tokenID, jobID)
	if err != nil {
		return fmt.Errorf("attach token: %w", err)
	}
	return nil
}

func (r *TokenRepository) ReadyForJob(ctx context.Context, jobID string) (*domain.Token, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT t.id, t.kind, t.user_id, t.secret, t.reset_at
		FROM tokens t
		JOIN job_tokens jt ON jt.token_id = t.id
		WHERE jt.job_id = $1 AND t.reset_at <= NOW()
		ORDER BY t.reset_at ASC
		LIMIT 1`, jobID)
	return scanToken(row)
}

func (r *TokenRepository) SetResetAt(ctx context.Context, tokenID string, resetAt time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE tokens SET reset_at = $2 WHERE id = $1`, tokenID, resetAt)
	if err != nil {
		return fmt.Errorf("set token reset_at: %w", err)
	}
	return nil
}

func (r *TokenRepository) RecordUsage(ctx context.Context, usage *domain.JobTokenUsage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO job_token_usage (job_id, token_id, used_at) VALUES ($1, $2, $3)`,
		usage.JobID, usage.TokenID, usage.UsedAt)
	if err != nil {
		return fmt.Errorf("record token usage: %w", err)
	}
	return nil
}

func scanToken(row rowScanner) (*domain.Token, error) {
	var t domain.Token
	err := row.Scan(&t.ID, &t.Kind, &t.UserID, &t.Secret, &t.ResetAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return &t, nil
}
