package kind

import "github.com/cauldronio/poolsched/internal/domain"

// newGitLabRaw builds the gitlab_raw kind: pulls raw data from the
// GitLab API for a repo, backed by a gitlab-kind token.
func newGitLabRaw(deps Deps) Kind {
	b := newBase(domain.KindGitLabRaw, "", gitlabTarget, deps)
	return &b
}

func gitlabTarget(repo *domain.Repo) string { return repo.Owner + "/" + repo.Name }
