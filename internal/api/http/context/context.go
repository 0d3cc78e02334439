package context

import (
	"context"

	"github.com/dtroode/gophchat-server/internal/model"
)

type identityKey struct{}

// Manager represents an HTTP request context manager for authenticated identities.
// It stores the identity resolved by the authentication middleware so handlers
// can read it back without parsing the token again.
type Manager struct{}

// NewManager creates a new context manager instance.
//
// Returns a pointer to the newly created Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

var _ model.ContextManager = (*Manager)(nil)

// SetIdentityToContext stores the identity in the request context.
//
// Parameters:
//   - ctx: The request context
//   - identity: The account and session resolved from the bearer token
//
// Returns a new context carrying the identity.
func (m *Manager) SetIdentityToContext(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentityFromContext retrieves the identity from the request context.
//
// Parameters:
//   - ctx: The request context
//
// Returns the identity and a boolean indicating if it was found.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(model.Identity)
	return identity, ok
}
