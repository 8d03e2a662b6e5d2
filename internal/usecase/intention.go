package usecase

import (
	"context"
	"fmt"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/kind"
	"github.com/cauldronio/poolsched/internal/repository"
)

// IntentionUsecase is the external entry point for requesting analysis
// of a repository. It never runs anything itself — it only materializes
// the raw+enrich intention pair a dispatcher will later pick up.
type IntentionUsecase struct {
	repos      repository.RepoRepository
	intentions repository.IntentionRepository
	tokens     repository.TokenRepository
	kinds      kind.Registry
}

func NewIntentionUsecase(repos repository.RepoRepository, intentions repository.IntentionRepository, tokens repository.TokenRepository, kinds kind.Registry) *IntentionUsecase {
	return &IntentionUsecase{repos: repos, intentions: intentions, tokens: tokens, kinds: kinds}
}

// AnalyzeGitRepo gets or creates the GitRaw/GitEnrich intention pair for
// a plain git URL. Git is not token-backed, so this always succeeds.
func (u *IntentionUsecase) AnalyzeGitRepo(ctx context.Context, userID, url string) (*domain.Repo, error) {
	repo, err := u.repos.GetOrCreateGit(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("get or create git repo: %w", err)
	}
	if err := u.chainRawEnrich(ctx, domain.KindGitEnrich, userID, repo.ID); err != nil {
		return nil, err
	}
	return repo, nil
}

// AnalyzeGitHubRepo requires userID to already own at least one GitHub
// token; returns (nil, nil) otherwise.
func (u *IntentionUsecase) AnalyzeGitHubRepo(ctx context.Context, userID, instanceName, owner, name string) (*domain.Repo, error) {
	hasToken, err := u.tokens.HasAny(ctx, userID, domain.TokenGitHub)
	if err != nil {
		return nil, fmt.Errorf("check github token: %w", err)
	}
	if !hasToken {
		return nil, nil
	}

	instance, err := u.repos.GetOrCreateInstance(ctx, domain.RepoGitHub, instanceName)
	if err != nil {
		return nil, fmt.Errorf("get or create github instance: %w", err)
	}
	repo, err := u.repos.GetOrCreateGitHub(ctx, owner, name, instance.ID)
	if err != nil {
		return nil, fmt.Errorf("get or create github repo: %w", err)
	}
	if err := u.chainRawEnrich(ctx, domain.KindGitHubEnrich, userID, repo.ID); err != nil {
		return nil, err
	}
	return repo, nil
}

// AnalyzeGitLabRepo mirrors AnalyzeGitHubRepo for GitLab.
func (u *IntentionUsecase) AnalyzeGitLabRepo(ctx context.Context, userID, instanceName, owner, name string) (*domain.Repo, error) {
	hasToken, err := u.tokens.HasAny(ctx, userID, domain.TokenGitLab)
	if err != nil {
		return nil, fmt.Errorf("check gitlab token: %w", err)
	}
	if !hasToken {
		return nil, nil
	}

	instance, err := u.repos.GetOrCreateInstance(ctx, domain.RepoGitLab, instanceName)
	if err != nil {
		return nil, fmt.Errorf("get or create gitlab instance: %w", err)
	}
	repo, err := u.repos.GetOrCreateGitLab(ctx, owner, name, instance.ID)
	if err != nil {
		return nil, fmt.Errorf("get or create gitlab repo: %w", err)
	}
	if err := u.chainRawEnrich(ctx, domain.KindGitLabEnrich, userID, repo.ID); err != nil {
		return nil, err
	}
	return repo, nil
}

// AnalyzeMeetupRepo mirrors AnalyzeGitHubRepo for a Meetup group.
func (u *IntentionUsecase) AnalyzeMeetupRepo(ctx context.Context, userID, group string) (*domain.Repo, error) {
	hasToken, err := u.tokens.HasAny(ctx, userID, domain.TokenMeetup)
	if err != nil {
		return nil, fmt.Errorf("check meetup token: %w", err)
	}
	if !hasToken {
		return nil, nil
	}

	repo, err := u.repos.GetOrCreateMeetup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("get or create meetup repo: %w", err)
	}
	if err := u.chainRawEnrich(ctx, domain.KindMeetupEnrich, userID, repo.ID); err != nil {
		return nil, err
	}
	return repo, nil
}

// chainRawEnrich gets or creates the enrich intention and, via the
// enrich kind's CreatePrevious, its raw counterpart, linking the two
// so the enrich intention stays un-ready until the raw one archives.
func (u *IntentionUsecase) chainRawEnrich(ctx context.Context, enrichKind domain.IntentionKind, userID, repoID string) error {
	enrich, err := u.intentions.GetOrCreate(ctx, enrichKind, userID, repoID)
	if err != nil {
		return fmt.Errorf("get or create %s intention: %w", enrichKind, err)
	}
	k, ok := u.kinds.Get(enrichKind)
	if !ok {
		return fmt.Errorf("unregistered kind %s", enrichKind)
	}
	if _, err := withRetry(ctx, func() ([]*domain.Intention, error) {
		return k.CreatePrevious(ctx, enrich)
	}); err != nil {
		return fmt.Errorf("create previous for %s: %w", enrichKind, err)
	}
	return nil
}
