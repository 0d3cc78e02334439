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

// Registration creates accounts after email ownership is proven by a passcode.
type Registration struct {
	accountStore model.AccountStore
	passcodes    model.PasscodeCache
	notifier     model.Notifier
	hasher       model.PasswordHasher
	logger       *logger.Logger
	now          func() time.Time
}

func NewRegistration(
	accountStore model.AccountStore,
	passcodes model.PasscodeCache,
	notifier model.Notifier,
	hasher model.PasswordHasher,
	logger *logger.Logger,
) *Registration {
	return &Registration{
		accountStore: accountStore,
		passcodes:    passcodes,
		notifier:     notifier,
		hasher:       hasher,
		logger:       logger,
		now:          time.Now,
	}
}

// Register runs the initiate phase when req.Code is empty and the complete phase otherwise.
func (r *Registration) Register(ctx context.Context, req model.RegisterRequest) (model.RegisterResult, error) {
	req.Email = model.NormalizeEmail(req.Email)

	if req.Code == "" {
		return r.initiate(ctx, req.Email)
	}
	return r.complete(ctx, req)
}

func (r *Registration) initiate(ctx context.Context, email string) (model.RegisterResult, error) {
	r.logger.Debug("Registration service: issuing passcode",
		"email", email)

	if email == "" {
		return model.RegisterResult{}, apierror.NewErrEmailRequired()
	}

	code, err := r.passcodes.Issue(ctx, email)
	if err != nil {
		r.logger.Error("Registration service: failed to issue passcode",
			"email", email,
			"error", err.Error())
		return model.RegisterResult{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to issue passcode: %w", err))
	}

	if err := r.notifier.SendPasscode(ctx, email, code); err != nil {
		r.logger.Error("Registration service: failed to send passcode",
			"email", email,
			"error", err.Error())
		return model.RegisterResult{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to send passcode: %w", err))
	}

	r.logger.Info("Registration service: passcode sent",
		"email", email)

	return model.RegisterResult{CodeSent: true}, nil
}

func (r *Registration) complete(ctx context.Context, req model.RegisterRequest) (model.RegisterResult, error) {
	r.logger.Debug("Registration service: completing registration",
		"email", req.Email)

	if req.Email == "" || req.Password == "" {
		return model.RegisterResult{}, apierror.NewErrMissingFields()
	}

	existing, err := r.accountStore.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		r.logger.Error("Registration service: failed to get account by email",
			"email", req.Email,
			"error", err.Error())
		return model.RegisterResult{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to get account by email: %w", err))
	}
	if existing.ID != uuid.Nil {
		r.logger.Info("Registration service: account already exists",
			"email", req.Email)
		return model.RegisterResult{}, apierror.NewErrEmailIsTaken(req.Email)
	}

	err = r.passcodes.Verify(ctx, req.Email, req.Code)
	switch {
	case errors.Is(err, model.ErrPasscodeNotFound), errors.Is(err, model.ErrPasscodeMismatch):
		r.logger.Info("Registration service: passcode rejected",
			"email", req.Email,
			"reason", err.Error())
		return model.RegisterResult{}, apierror.NewErrInvalidCode()
	case err != nil:
		r.logger.Error("Registration service: failed to verify passcode",
			"email", req.Email,
			"error", err.Error())
		return model.RegisterResult{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to verify passcode: %w", err))
	}

	hash, err := r.hasher.Hash(req.Password)
	if err != nil {
		r.logger.Error("Registration service: failed to hash password",
			"email", req.Email,
			"error", err.Error())
		return model.RegisterResult{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to hash password: %w", err))
	}

	now := r.now()
	account, err := r.accountStore.Create(ctx, model.Account{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		SessionIDs:   []uuid.UUID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, model.ErrAlreadyExists) {
		r.logger.Info("Registration service: account created concurrently",
			"email", req.Email)
		return model.RegisterResult{}, apierror.NewErrEmailIsTaken(req.Email)
	}
	if err != nil {
		r.logger.Error("Registration service: failed to create account",
			"email", req.Email,
			"error", err.Error())
		return model.RegisterResult{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to create account: %w", err))
	}

	r.logger.Info("Registration service: account created",
		"email", req.Email,
		"account_id", account.ID)

	return model.RegisterResult{AccountID: account.ID}, nil
}
