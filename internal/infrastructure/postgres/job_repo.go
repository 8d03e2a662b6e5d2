package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, created_at, worker_id, log_location, lease_expires_at
		FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

// ClaimResumable implements next_job: find a job of kind, owned by
// nobody, bound to an intention still pending a token-backed kind's
// tokens being ready (a job with no token requirement is always
// resumable), and claim it by setting worker_id and a fresh lease.
// FOR UPDATE SKIP LOCKED so concurrent workers fan out across distinct
// candidates instead of queueing behind each other.
func (r *JobRepository) ClaimResumable(ctx context.Context, kind domain.IntentionKind, workerID string) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE jobs
		SET    worker_id        = $2,
		       lease_expires_at = NOW() + INTERVAL '10 minutes'
		WHERE id = (
			SELECT j.id
			FROM jobs j
			JOIN intentions i ON i.job_id = j.id
			WHERE i.kind = $1
			  AND j.worker_id IS NULL
			  AND NOT EXISTS (
			      SELECT 1 FROM job_tokens jt
			      JOIN tokens t ON t.id = jt.token_id
			      WHERE jt.job_id = j.id AND t.reset_at > NOW()
			  )
			ORDER BY j.created_at ASC
			LIMIT 1
			FOR UPDATE OF j SKIP LOCKED
		)
		RETURNING id, created_at, worker_id, log_location, lease_expires_at`,
		kind, workerID)

	return scanJob(row)
}

// Release clears worker_id, making the job resumable again (suspend
// path, e.g. a runner hit a rate limit).
func (r *JobRepository) Release(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE jobs SET worker_id = NULL, lease_expires_at = NULL WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("release job: %w", err)
	}
	return nil
}

func (r *JobRepository) Delete(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

func (r *JobRepository) CountClaimed(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM jobs WHERE worker_id IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count claimed jobs: %w", err)
	}
	return n, nil
}

func (r *JobRepository) RenewLease(ctx context.Context, jobID string, ttlSeconds int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE jobs SET lease_expires_at = NOW() + make_interval(secs => $2) WHERE id = $1 AND worker_id IS NOT NULL`,
		jobID, ttlSeconds)
	if err != nil {
		return fmt.Errorf("renew lease: %w", err)
	}
	return nil
}

// ReleaseExpiredLeases backs the reaper: a worker that crashed or was
// killed leaves its claimed jobs orphaned until the lease expires, at
// which point any worker may resume them.
func (r *JobRepository) ReleaseExpiredLeases(ctx context.Context, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET    worker_id        = NULL,
		       lease_expires_at = NULL
		WHERE id IN (
			SELECT id FROM jobs
			WHERE worker_id IS NOT NULL AND lease_expires_at < NOW()
			ORDER BY lease_expires_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)`, limit)
	if err != nil {
		return 0, fmt.Errorf("release expired leases: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var j domain.Job
	err := row.Scan(&j.ID, &j.CreatedAt, &j.WorkerID, &j.LogLocation, &j.LeaseExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}
