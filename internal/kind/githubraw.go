package kind

import "github.com/cauldronio/poolsched/internal/domain"

// newGitHubRaw builds the github_raw kind: pulls raw data from the
// GitHub API for a repo, backed by a github-kind token.
func newGitHubRaw(deps Deps) Kind {
	b := newBase(domain.KindGitHubRaw, "", githubTarget, deps)
	return &b
}

func githubTarget(repo *domain.Repo) string { return repo.Owner + "/" + repo.Name }
