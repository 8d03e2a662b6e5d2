// Package taskrunner defines the external collaborator contract invoked
// by a kind's Run operation. Concrete runners that actually gather or
// enrich data from Git, GitHub, GitLab, or Meetup live outside this
// module; this package only fixes the boundary they must satisfy.
package taskrunner

import (
	"context"

	"github.com/cauldronio/poolsched/internal/domain"
)

// Input is everything a runner needs to gather or enrich one target.
type Input struct {
	Kind   domain.IntentionKind
	RepoID string

	// Target identifies what to operate on. For Git it is a clone URL;
	// for GitHub/GitLab it is "owner/name" against Instance; for Meetup
	// it is the group slug.
	Target string

	// TokenSecret is empty for non-token-backed kinds (Git).
	TokenSecret string
}

// Outcome is the runner's verdict, mapped by the caller as follows:
//   - Completed: archive with OK.
//   - Suspended: release the job, stamp the token's reset time by
//     RetryAfterMinutes, retry later.
//   - Failed: archive with ERROR.
type Outcome int

const (
	Completed Outcome = iota
	Suspended
	Failed
)

// Result is the runner's return value.
type Result struct {
	Outcome Outcome

	// RetryAfterMinutes is meaningful only when Outcome == Suspended.
	RetryAfterMinutes int

	// Err carries the failure detail when Outcome == Failed.
	Err error
}

// TaskRunner is the capability the scheduler invokes to perform the
// actual gathering/enrichment work. Implementations live outside this
// module.
type TaskRunner interface {
	Run(ctx context.Context, in Input) Result
}
