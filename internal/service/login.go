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

// Login exchanges email and password for a session token.
type Login struct {
	accountStore model.AccountStore
	sessionStore model.SessionStore
	tokenManager model.TokenManager
	hasher       model.PasswordHasher
	sessionTTL   time.Duration
	logger       *logger.Logger
	now          func() time.Time
}

func NewLogin(
	accountStore model.AccountStore,
	sessionStore model.SessionStore,
	tokenManager model.TokenManager,
	hasher model.PasswordHasher,
	sessionTTL time.Duration,
	logger *logger.Logger,
) *Login {
	return &Login{
		accountStore: accountStore,
		sessionStore: sessionStore,
		tokenManager: tokenManager,
		hasher:       hasher,
		sessionTTL:   sessionTTL,
		logger:       logger,
		now:          time.Now,
	}
}

func (l *Login) Login(ctx context.Context, email, password string) (model.LoginResult, error) {
	email = model.NormalizeEmail(email)

	l.logger.Debug("Login service: starting login",
		"email", email)

	if email == "" || password == "" {
		return model.LoginResult{}, apierror.NewErrValidation("email and password are required")
	}

	account, err := l.accountStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		l.logger.Info("Login service: unknown email",
			"email", email)
		return model.LoginResult{}, apierror.NewErrInvalidCredentials()
	}
	if err != nil {
		l.logger.Error("Login service: failed to get account by email",
			"email", email,
			"error", err.Error())
		return model.LoginResult{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to get account by email: %w", err))
	}

	if err := l.hasher.Compare(account.PasswordHash, password); err != nil {
		l.logger.Info("Login service: password rejected",
			"email", email,
			"account_id", account.ID)
		return model.LoginResult{}, apierror.NewErrInvalidCredentials()
	}

	token, _, err := l.tokenManager.Generate(account.ID)
	if err != nil {
		l.logger.Error("Login service: failed to generate token",
			"account_id", account.ID,
			"error", err.Error())
		return model.LoginResult{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to generate token: %w", err))
	}

	session, err := l.sessionStore.Create(ctx, model.Session{
		ID:        uuid.New(),
		Provider:  model.ProviderPassword,
		AccountID: account.ID,
		Token:     token,
		ExpiresAt: l.now().Add(l.sessionTTL),
	})
	if err != nil {
		l.logger.Error("Login service: failed to create session",
			"account_id", account.ID,
			"error", err.Error())
		return model.LoginResult{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to create session: %w", err))
	}

	if err := l.accountStore.AppendSession(ctx, account.ID, session.ID); err != nil {
		l.logger.Error("Login service: failed to attach session to account",
			"account_id", account.ID,
			"session_id", session.ID,
			"error", err.Error())
		if _, delErr := l.sessionStore.DeleteByToken(ctx, token); delErr != nil {
			l.logger.Error("Login service: failed to drop orphaned session",
				"session_id", session.ID,
				"error", delErr.Error())
		}
		return model.LoginResult{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to append session: %w", err))
	}

	l.logger.Info("Login service: session issued",
		"account_id", account.ID,
		"session_id", session.ID)

	return model.LoginResult{
		Token:     token,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
