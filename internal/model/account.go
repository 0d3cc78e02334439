package model

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	AppendSession(ctx context.Context, accountID, sessionID uuid.UUID) error
	SetProfileImage(ctx context.Context, accountID uuid.UUID, key string) error
}

// Account represents a registered user identity.
type Account struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	ProfileImage string
	SessionIDs   []uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
