package model

import (
	"context"
	"errors"
)

var (
	// ErrPasscodeNotFound means no pending code exists for the email (expired or never issued).
	ErrPasscodeNotFound = errors.New("passcode not found")
	// ErrPasscodeMismatch means the submitted code differs from the pending one.
	ErrPasscodeMismatch = errors.New("passcode mismatch")
)

// PasscodeCache keeps at most one short-lived one-time passcode per email.
type PasscodeCache interface {
	// Issue generates a new code for email, replacing any pending one.
	Issue(ctx context.Context, email string) (string, error)
	// Verify consumes the pending code when it matches.
	Verify(ctx context.Context, email, code string) error
}

// Notifier delivers passcodes to their owners.
type Notifier interface {
	SendPasscode(ctx context.Context, email, code string) error
}
