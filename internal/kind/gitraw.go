package kind

import "github.com/cauldronio/poolsched/internal/domain"

// newGitRaw builds the git_raw kind: clones/fetches a plain git
// repository. Not token-backed, has no raw counterpart of its own.
func newGitRaw(deps Deps) Kind {
	b := newBase(domain.KindGitRaw, "", gitTarget, deps)
	return &b
}

func gitTarget(repo *domain.Repo) string { return repo.URL }
