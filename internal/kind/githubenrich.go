package kind

import "github.com/cauldronio/poolsched/internal/domain"

// newGitHubEnrich builds the github_enrich kind. Depends on github_raw,
// still token-backed: enrichment makes its own GitHub API calls.
func newGitHubEnrich(deps Deps) Kind {
	b := newBase(domain.KindGitHubEnrich, domain.KindGitHubRaw, githubTarget, deps)
	return &b
}
