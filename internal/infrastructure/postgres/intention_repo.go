package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IntentionRepository struct {
	pool *pgxpool.Pool
}

func NewIntentionRepository(pool *pgxpool.Pool) *IntentionRepository {
	return &IntentionRepository{pool: pool}
}

func (r *IntentionRepository) Create(ctx context.Context, in *domain.Intention) (*domain.Intention, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO intentions (kind, user_id, repo_id, notify_on_failure)
		VALUES ($1, $2, $3, $4)
		RETURNING id, kind, user_id, repo_id, created_at, job_id, notify_on_failure`,
		in.Kind, in.UserID, in.RepoID, in.NotifyOnFailure)
	return scanIntention(r.pool, ctx, row)
}

// GetOrCreate implements the get-or-create used to link an intention to
// its raw counterpart: concurrent callers racing to create the same
// (kind, user, repo) row both end up observing the same final row.
func (r *IntentionRepository) GetOrCreate(ctx context.Context, kind domain.IntentionKind, userID, repoID string) (*domain.Intention, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO intentions (kind, user_id, repo_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, user_id, repo_id) DO UPDATE SET kind = EXCLUDED.kind
		RETURNING id, kind, user_id, repo_id, created_at, job_id, notify_on_failure`,
		kind, userID, repoID)
	return scanIntention(r.pool, ctx, row)
}

func (r *IntentionRepository) GetByID(ctx context.Context, id string) (*domain.Intention, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, kind, user_id, repo_id, created_at, job_id, notify_on_failure
		FROM intentions WHERE id = $1`, id)
	return scanIntention(r.pool, ctx, row)
}

func (r *IntentionRepository) AddPrevious(ctx context.Context, id, previousID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO intention_previous (intention_id, previous_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		id, previousID)
	if err != nil {
		return fmt.Errorf("add previous: %w", err)
	}
	return nil
}

// Selectable returns up to max ready (no previous), unadmitted (no
// job_id) intentions of kind owned by userID.
func (r *IntentionRepository) Selectable(ctx context.Context, kind domain.IntentionKind, userID string, max int) ([]*domain.Intention, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.kind, i.user_id, i.repo_id, i.created_at, i.job_id, i.notify_on_failure
		FROM intentions i
		WHERE i.kind = $1 AND i.user_id = $2 AND i.job_id IS NULL
		  AND NOT EXISTS (SELECT 1 FROM intention_previous p WHERE p.intention_id = i.id)
		ORDER BY i.created_at ASC
		LIMIT $3`, kind, userID, max)
	if err != nil {
		return nil, fmt.Errorf("selectable intentions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Intention
	for rows.Next() {
		in, err := scanIntentionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *IntentionRepository) UsersWithReadyIntentions(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT i.user_id
		FROM intentions i
		WHERE i.job_id IS NULL
		  AND NOT EXISTS (SELECT 1 FROM intention_previous p WHERE p.intention_id = i.id)
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("users with ready intentions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *IntentionRepository) RunningJobForRepo(ctx context.Context, kind domain.IntentionKind, repoID string) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT j.id, j.created_at, j.worker_id, j.log_location, j.lease_expires_at
		FROM jobs j
		JOIN intentions i ON i.job_id = j.id
		WHERE i.kind = $1 AND i.repo_id = $2
		LIMIT 1`, kind, repoID)
	return scanJob(row)
}

// BindJob atomically binds id to an already-existing job, under a
// non-blocking exclusive lock on the intention row: if the row already
// carries a job it has lost the admission race.
func (r *IntentionRepository) BindJob(ctx context.Context, id, jobID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing *string
	err = tx.QueryRow(ctx, `SELECT job_id FROM intentions WHERE id = $1 FOR UPDATE NOWAIT`, id).Scan(&existing)
	if err != nil {
		if isLockNotAvailable(err) {
			return domain.ErrLockContention
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrIntentionNotFound
		}
		return fmt.Errorf("lock intention: %w", err)
	}
	if existing != nil {
		return domain.ErrAlreadyAdmitted
	}

	if _, err := tx.Exec(ctx, `UPDATE intentions SET job_id = $2 WHERE id = $1`, id, jobID); err != nil {
		return fmt.Errorf("bind job: %w", err)
	}
	return tx.Commit(ctx)
}

// CreateJob creates a brand new job owned by workerID and binds it to id
// in the same transaction, under the same exclusive-lock discipline as
// BindJob.
func (r *IntentionRepository) CreateJob(ctx context.Context, id, workerID string) (*domain.Job, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing *string
	err = tx.QueryRow(ctx, `SELECT job_id FROM intentions WHERE id = $1 FOR UPDATE NOWAIT`, id).Scan(&existing)
	if err != nil {
		if isLockNotAvailable(err) {
			return nil, domain.ErrLockContention
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIntentionNotFound
		}
		return nil, fmt.Errorf("lock intention: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrAlreadyAdmitted
	}

	var j domain.Job
	err = tx.QueryRow(ctx, `
		INSERT INTO jobs (worker_id, lease_expires_at) VALUES ($1, NOW() + INTERVAL '10 minutes')
		RETURNING id, created_at, worker_id, log_location, lease_expires_at`,
		workerID,
	).Scan(&j.ID, &j.CreatedAt, &j.WorkerID, &j.LogLocation, &j.LeaseExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE intentions SET job_id = $2 WHERE id = $1`, id, j.ID); err != nil {
		return nil, fmt.Errorf("bind job: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &j, nil
}

func (r *IntentionRepository) IntentionsForJob(ctx context.Context, jobID string) ([]*domain.Intention, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, user_id, repo_id, created_at, job_id, notify_on_failure
		FROM intentions WHERE job_id = $1`, jobID)
	if err != nil {
		return nil, fmt.Errorf("intentions for job: %w", err)
	}
	defer rows.Close()

	var out []*domain.Intention
	for rows.Next() {
		in, err := scanIntentionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Archive inserts the frozen ArchJob + ArchivedIntention rows and
// deletes the live intention and job, in one transaction (spec
// invariant: archival is atomic, never leaves a half-archived job).
func (r *IntentionRepository) Archive(ctx context.Context, in *domain.Intention, status domain.ArchiveStatus, archJobID string) (*domain.ArchivedIntention, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO arch_jobs (id, created_at, archived_at, worker_id, log_location)
		SELECT id, created_at, NOW(), worker_id, log_location FROM jobs WHERE id = $1
		ON CONFLICT (id) DO NOTHING`, archJobID); err != nil {
		return nil, fmt.Errorf("archive job: %w", err)
	}

	var out domain.ArchivedIntention
	err = tx.QueryRow(ctx, `
		INSERT INTO archived_intentions (id, kind, user_id, repo_id, created_at, completed_at, status, arch_job_id)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6, $7)
		RETURNING id, kind, user_id, repo_id, created_at, completed_at, status, arch_job_id`,
		in.ID, in.Kind, in.UserID, in.RepoID, in.CreatedAt, status, archJobID,
	).Scan(&out.ID, &out.Kind, &out.UserID, &out.RepoID, &out.CreatedAt, &out.CompletedAt, &out.Status, &out.ArchJobID)
	if err != nil {
		return nil, fmt.Errorf("insert archived intention: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM intention_previous WHERE intention_id = $1 OR previous_id = $1`, in.ID); err != nil {
		return nil, fmt.Errorf("unlink previous: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM intentions WHERE id = $1`, in.ID); err != nil {
		return nil, fmt.Errorf("delete intention: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, archJobID); err != nil {
		return nil, fmt.Errorf("delete job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &out, nil
}

func (r *IntentionRepository) ListArchived(ctx context.Context, in repository.ListArchivedInput) ([]*domain.ArchivedIntention, error) {
	args := []any{in.UserID}
	where := "user_id = $1"
	if in.CursorTime != nil {
		args = append(args, *in.CursorTime, in.CursorID)
		where += fmt.Sprintf(" AND (completed_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, in.Limit)

	query := fmt.Sprintf(`
		SELECT id, kind, user_id, repo_id, created_at, completed_at, status, arch_job_id
		FROM archived_intentions
		WHERE %s
		ORDER BY completed_at DESC, id DESC
		LIMIT $%d`, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list archived intentions: %w", err)
	}
	defer rows.Close()

	var out []*domain.ArchivedIntention
	for rows.Next() {
		var a domain.ArchivedIntention
		if err := rows.Scan(&a.ID, &a.Kind, &a.UserID, &a.RepoID, &a.CreatedAt, &a.CompletedAt, &a.Status, &a.ArchJobID); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func scanIntention(pool *pgxpool.Pool, ctx context.Context, row rowScanner) (*domain.Intention, error) {
	in, err := scanIntentionRow(row)
	if err != nil {
		return nil, err
	}
	prevRows, err := pool.Query(ctx, `SELECT previous_id FROM intention_previous WHERE intention_id = $1`, in.ID)
	if err != nil {
		return nil, fmt.Errorf("load previous: %w", err)
	}
	defer prevRows.Close()
	for prevRows.Next() {
		var id string
		if err := prevRows.Scan(&id); err != nil {
			return nil, err
		}
		in.Previous = append(in.Previous, id)
	}
	return in, prevRows.Err()
}

func scanIntentionRow(row rowScanner) (*domain.Intention, error) {
	var in domain.Intention
	err := row.Scan(&in.ID, &in.Kind, &in.UserID, &in.RepoID, &in.CreatedAt, &in.JobID, &in.NotifyOnFailure)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIntentionNotFound
		}
		return nil, fmt.Errorf("scan intention: %w", err)
	}
	return &in, nil
}

func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}
