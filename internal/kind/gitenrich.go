package kind

import "github.com/cauldronio/poolsched/internal/domain"

// newGitEnrich builds the git_enrich kind: runs enrichment over data a
// prior git_raw intention already gathered. Depends on git_raw.
func newGitEnrich(deps Deps) Kind {
	b := newBase(domain.KindGitEnrich, domain.KindGitRaw, gitTarget, deps)
	return &b
}
