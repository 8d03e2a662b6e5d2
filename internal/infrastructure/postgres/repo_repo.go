package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RepoRepository struct {
	pool *pgxpool.Pool
}

func NewRepoRepository(pool *pgxpool.Pool) *RepoRepository {
	return &RepoRepository{pool: pool}
}

func (r *RepoRepository) GetOrCreateGit(ctx context.Context, url string) (*domain.Repo, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO repos (kind, url)
		VALUES ('git', $1)
		ON CONFLICT (kind, url) DO UPDATE SET url = EXCLUDED.url
		RETURNING id, kind, url, owner, name, instance_id, "group"`, url)
	return scanRepo(row)
}

func (r *RepoRepository) GetOrCreateGitHub(ctx context.Context, owner, name, instanceID string) (*domain.Repo, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO repos (kind, owner, name, instance_id)
		VALUES ('github', $1, $2, $3)
		ON CONFLICT (kind, owner, name, instance_id) DO UPDATE SET owner = EXCLUDED.owner
		RETURNING id, kind, url, owner, name, instance_id, "group"`, owner, name, instanceID)
	return scanRepo(row)
}

func (r *RepoRepository) GetOrCreateGitLab(ctx context.Context, owner, name, instanceID string) (*domain.Repo, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO repos (kind, owner, name, instance_id)
		VALUES ('gitlab', $1, $2, $3)
		ON CONFLICT (kind, owner, name, instance_id) DO UPDATE SET owner = EXCLUDED.owner
		RETURNING id, kind, url, owner, name, instance_id, "group"`, owner, name, instanceID)
	return scanRepo(row)
}

func (r *RepoRepository) GetOrCreateMeetup(ctx context.Context, group string) (*domain.Repo, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO repos (kind, "group")
		VALUES ('meetup', $1)
		ON CONFLICT (kind, "group") DO UPDATE SET "group" = EXCLUDED."group"
		RETURNING id, kind, url, owner, name, instance_id, "group"`, group)
	return scanRepo(row)
}

func (r *RepoRepository) GetByID(ctx context.Context, id string) (*domain.Repo, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, kind, url, owner, name, instance_id, "group" FROM repos WHERE id = $1`, id)
	return scanRepo(row)
}

func (r *RepoRepository) GetOrCreateInstance(ctx context.Context, kind domain.RepoKind, name string) (*domain.Instance, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO instances (kind, name)
		VALUES ($1, $2)
		ON CONFLICT (kind, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, kind, name`, kind, name)

	var inst domain.Instance
	if err := row.Scan(&inst.ID, &inst.Kind, &inst.Name); err != nil {
		return nil, fmt.Errorf("get or create instance: %w", err)
	}
	return &inst, nil
}

func scanRepo(row rowScanner) (*domain.Repo, error) {
	var rp domain.Repo
	err := row.Scan(&rp.ID, &rp.Kind, &rp.URL, &rp.Owner, &rp.Name, &rp.InstanceID, &rp.Group)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRepoNotFound
		}
		return nil, fmt.Errorf("scan repo: %w", err)
	}
	return &rp, nil
}

type WorkerRepository struct {
	pool *pgxpool.Pool
}

func NewWorkerRepository(pool *pgxpool.Pool) *WorkerRepository {
	return &WorkerRepository{pool: pool}
}

func (r *WorkerRepository) Create(ctx context.Context, hostname string) (*domain.Worker, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO workers (hostname, status) VALUES ($1, 'up')
		RETURNING id, hostname, status, created_at`, hostname)

	var w domain.Worker
	if err := row.Scan(&w.ID, &w.Hostname, &w.Status, &w.CreatedAt); err != nil {
		return nil, fmt.Errorf("create worker: %w", err)
	}
	return &w, nil
}

func (r *WorkerRepository) MarkDown(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE workers SET status = 'down' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark worker down: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWorkerNotFound
	}
	return nil
}

// Count reports how many workers are currently up, used by the
// dispatcher's global admission cap (5 × worker-count).
func (r *WorkerRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM workers WHERE status = 'up'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count workers: %w", err)
	}
	return n, nil
}
