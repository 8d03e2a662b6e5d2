package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrTokenInvalid = errors.New("credential token is invalid or expired")
	ErrUnauthorized = errors.New("unauthorized")
)

// User owns intentions, repos, and credential tokens.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MagicToken is a one-time sign-in token emailed to a user; unrelated to
// the per-API credential Token used for admission (see token.go).
type MagicToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
