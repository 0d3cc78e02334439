package model

import "github.com/google/uuid"

// RegisterRequest is the validated input of both registration phases.
// An empty Code selects the initiate phase.
type RegisterRequest struct {
	Email    string
	Password string
	Code     string
	Name     string
}

// RegisterResult describes the outcome of a registration phase.
type RegisterResult struct {
	CodeSent  bool
	AccountID uuid.UUID
}
