package repository

import (
	"context"

	"github.com/cauldronio/poolsched/internal/domain"
)

// RepoRepository resolves or creates the per-kind target descriptors
// used by the intention-creation API.
type RepoRepository interface {
	GetOrCreateGit(ctx context.Context, url string) (*domain.Repo, error)
	GetOrCreateGitHub(ctx context.Context, owner, name, instanceID string) (*domain.Repo, error)
	GetOrCreateGitLab(ctx context.Context, owner, name, instanceID string) (*domain.Repo, error)
	GetOrCreateMeetup(ctx context.Context, group string) (*domain.Repo, error)
	GetByID(ctx context.Context, id string) (*domain.Repo, error)

	GetOrCreateInstance(ctx context.Context, kind domain.RepoKind, name string) (*domain.Instance, error)
}

// WorkerRepository tracks the Worker aggregate.
type WorkerRepository interface {
	Create(ctx context.Context, hostname string) (*domain.Worker, error)
	MarkDown(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
