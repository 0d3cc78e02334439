package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenManager signs and verifies session tokens.
type TokenManager interface {
	Generate(accountID uuid.UUID) (token string, expiresAt time.Time, err error)
	Parse(token string) (uuid.UUID, error)
}

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
