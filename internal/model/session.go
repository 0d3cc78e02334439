package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProviderPassword is the provider kind of sessions issued by password login.
const ProviderPassword = "password"

// SessionStore defines persistence operations for issued sessions.
type SessionStore interface {
	Create(ctx context.Context, session Session) (Session, error)
	GetByToken(ctx context.Context, token string) (Session, error)
	// DeleteByToken removes the session holding token and reports whether it existed.
	DeleteByToken(ctx context.Context, token string) (bool, error)
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Session is a server-side record of one issued login ("auth provider" record).
type Session struct {
	ID           uuid.UUID
	Provider     string
	AccountID    uuid.UUID
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the record expiry has passed at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity is what the session validator exposes to authenticated handlers.
type Identity struct {
	AccountID uuid.UUID
	SessionID uuid.UUID
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	SessionID uuid.UUID
	ExpiresAt time.Time
}
