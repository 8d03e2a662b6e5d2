package domain

import (
	"errors"
	"time"
)

var (
	ErrIntentionNotFound    = errors.New("intention not found")
	ErrLockContention       = errors.New("row lock unavailable, try another candidate")
	ErrAlreadyAdmitted      = errors.New("intention already admitted by another worker")
	ErrNoEligibleToken      = errors.New("no eligible token for this user and kind")
	ErrUnknownIntentionKind = errors.New("unknown intention kind")
)

// Intention is a user's desire to reach a state for a target repo. Many
// intentions may point to the same Job (coalescing); an intention with a
// non-empty Previous set is not ready until every predecessor has been
// archived and removed.
type Intention struct {
	ID        string
	Kind      IntentionKind
	UserID    string
	RepoID    string
	CreatedAt time.Time

	// JobID is nil until admitted, set while work is pending. The
	// intention row is deleted once its job is archived.
	JobID *string

	// Previous holds the IDs of intentions that must be archived before
	// this one is ready. Populated by CreatePrevious / get-or-create
	// chains, not mutated by the dispatcher itself.
	Previous []string

	// NotifyOnFailure opts the owner into an email notification when
	// this intention archives with status ERROR.
	NotifyOnFailure bool
}

// Ready reports whether the intention has no outstanding predecessors.
func (i *Intention) Ready() bool {
	return len(i.Previous) == 0
}

// Admitted reports whether the intention is already bound to a job.
func (i *Intention) Admitted() bool {
	return i.JobID != nil
}
