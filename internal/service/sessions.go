package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/gophchat-server/internal/apierror"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

// Sessions validates and revokes issued session tokens.
type Sessions struct {
	sessionStore model.SessionStore
	tokenManager model.TokenManager
	logger       *logger.Logger
	now          func() time.Time
}

func NewSessions(sessionStore model.SessionStore, tokenManager model.TokenManager, logger *logger.Logger) *Sessions {
	return &Sessions{
		sessionStore: sessionStore,
		tokenManager: tokenManager,
		logger:       logger,
		now:          time.Now,
	}
}

// Validate accepts token only if it is correctly signed, unexpired and still
// backed by a live session record of the same account.
func (s *Sessions) Validate(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, apierror.NewErrMissingAuthorizationToken()
	}

	accountID, err := s.tokenManager.Parse(token)
	if err != nil {
		s.logger.Debug("Sessions service: token rejected",
			"error", err.Error())
		return model.Identity{}, apierror.NewErrInvalidAuthorizationToken()
	}
	if accountID == uuid.Nil {
		return model.Identity{}, apierror.NewErrInvalidAuthorizationToken()
	}

	session, err := s.sessionStore.GetByToken(ctx, token)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Debug("Sessions service: no session for token",
			"account_id", accountID)
		return model.Identity{}, apierror.NewErrSessionRevoked()
	}
	if err != nil {
		s.logger.Error("Sessions service: failed to get session by token",
			"account_id", accountID,
			"error", err.Error())
		return model.Identity{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to get session: %w", err))
	}

	if session.Expired(s.now()) {
		s.logger.Debug("Sessions service: session expired",
			"account_id", accountID,
			"session_id", session.ID)
		return model.Identity{}, apierror.NewErrSessionRevoked()
	}

	if session.AccountID != accountID {
		s.logger.Error("Sessions service: session belongs to another account",
			"account_id", accountID,
			"session_id", session.ID)
		return model.Identity{}, apierror.NewErrInvalidAuthorizationToken()
	}

	return model.Identity{AccountID: accountID, SessionID: session.ID}, nil
}

// Logout deletes the session holding token. Unknown tokens are not an error.
func (s *Sessions) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apierror.NewErrMissingAuthorizationToken()
	}

	existed, err := s.sessionStore.DeleteByToken(ctx, token)
	if err != nil {
		s.logger.Error("Sessions service: failed to delete session",
			"error", err.Error())
		return apierror.NewErrInternalServerError(fmt.Errorf("failed to delete session: %w", err))
	}

	s.logger.Info("Sessions service: logout",
		"existed", existed)

	return nil
}

// LogoutAll deletes every session of the account and returns how many were removed.
func (s *Sessions) LogoutAll(ctx context.Context, accountID uuid.UUID) (int64, error) {
	n, err := s.sessionStore.DeleteByAccount(ctx, accountID)
	if err != nil {
		s.logger.Error("Sessions service: failed to delete account sessions",
			"account_id", accountID,
			"error", err.Error())
		return 0, apierror.NewErrInternalServerError(fmt.Errorf("failed to delete sessions: %w", err))
	}

	s.logger.Info("Sessions service: all sessions revoked",
		"account_id", accountID,
		"revoked", n)

	return n, nil
}
