package repository

import (
	"context"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
)

// TokenRepository is the store-facing port for the Token admission
// policy.
type TokenRepository interface {
	// HasReady reports whether userID owns at least one token of kind
	// with ResetAt in the past and fewer than MaxJobsToken[kind]
	// attached jobs. selectable() must not query intentions at all when
	// this is false.
	HasReady(ctx context.Context, userID string, kind domain.TokenKind) (bool, error)

	// HasAny reports whether userID owns at least one token of kind at
	// all, regardless of cool-down — the admission-time precondition for
	// creating a token-backed intention in the first place, looser than
	// HasReady.
	HasAny(ctx context.Context, userID string, kind domain.TokenKind) (bool, error)

	// EligibleForUser returns every token owned by userID of kind whose
	// ResetAt has passed and with fewer than MaxJobsToken[kind] attached
	// jobs, skipping tokens a concurrent caller has locked, locked for update so
	// the caller may safely attach more jobs to them.
	EligibleForUser(ctx context.Context, userID string, kind domain.TokenKind) ([]*domain.Token, error)

	// Attach records a many-to-many association between a token and a
	// job (atomic insert, not an optimistic counter update).
	Attach(ctx context.Context, tokenID, jobID string) error

	// ReadyForJob returns the first token attached to jobID whose
	// cool-down has elapsed, for the runner to use at execution time.
	// Returns domain.ErrTokenNotFound if none are ready.
	ReadyForJob(ctx context.Context, jobID string) (*domain.Token, error)

	// SetResetAt stamps a token's cool-down after a rate-limit response.
	SetResetAt(ctx context.Context, tokenID string, resetAt time.Time) error

	// RecordUsage audits which token a job actually used, so a rotated
	// or revoked secret can be traced back to the jobs it ran.
	RecordUsage(ctx context.Context, usage *domain.JobTokenUsage) error
}
