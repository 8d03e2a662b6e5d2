package kind

import "github.com/cauldronio/poolsched/internal/domain"

// newGitLabEnrich builds the gitlab_enrich kind. Depends on gitlab_raw.
func newGitLabEnrich(deps Deps) Kind {
	b := newBase(domain.KindGitLabEnrich, domain.KindGitLabRaw, gitlabTarget, deps)
	return &b
}
