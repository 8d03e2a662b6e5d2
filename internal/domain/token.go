package domain

import (
	"errors"
	"time"
)

var ErrTokenNotFound = errors.New("credential token not found")

// Token is an API credential owned by a user. A token may be attached to
// at most MaxJobsToken[Kind] concurrent jobs, and may only be selected
// for execution once ResetAt is in the past.
type Token struct {
	ID       string
	Kind     TokenKind
	UserID   string
	Secret   string
	ResetAt  time.Time
}

// Ready reports whether the token's cool-down has elapsed.
func (t *Token) Ready(now time.Time) bool {
	return now.After(t.ResetAt)
}

// JobTokenUsage records which token a job actually used at execution
// time, for audit and for diagnosing token-rotation failures after the
// fact.
type JobTokenUsage struct {
	JobID   string
	TokenID string
	UsedAt  time.Time
}
