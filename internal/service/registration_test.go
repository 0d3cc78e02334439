package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/gophchat-server/internal/apierror"
	"github.com/dtroode/gophchat-server/internal/mocks"
	"github.com/dtroode/gophchat-server/internal/model"
	"github.com/dtroode/gophchat-server/internal/testutil"
)

type registrationDeps struct {
	accounts  *mocks.AccountStore
	passcodes *mocks.PasscodeCache
	notifier  *mocks.Notifier
	hasher    *mocks.PasswordHasher
}

func newTestRegistration(t *testing.T) (*Registration, registrationDeps) {
	d := registrationDeps{
		accounts:  mocks.NewAccountStore(t),
		passcodes: mocks.NewPasscodeCache(t),
		notifier:  mocks.NewNotifier(t),
		hasher:    mocks.NewPasswordHasher(t),
	}
	return NewRegistration(d.accounts, d.passcodes, d.notifier, d.hasher, testutil.MakeNoopLogger()), d
}

func TestRegistration_Initiate(t *testing.T) {
	t.Parallel()

	r, d := newTestRegistration(t)
	d.passcodes.On("Issue", mock.Anything, "a@x.com").Return("123456", nil)
	d.notifier.On("SendPasscode", mock.Anything, "a@x.com", "123456").Return(nil)

	res, err := r.Register(context.Background(), model.RegisterRequest{Email: "  A@X.com "})
	require.NoError(t, err)
	assert.True(t, res.CodeSent)
	assert.Equal(t, uuid.Nil, res.AccountID)
}

func TestRegistration_Initiate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		email   string
		setup   func(d registrationDeps)
		errKind apierror.Kind
	}{
		{
			name:    "missing email",
			email:   "",
			setup:   func(registrationDeps) {},
			errKind: apierror.KindValidation,
		},
		{
			name:  "cache unavailable",
			email: "a@x.com",
			setup: func(d registrationDeps) {
				d.passcodes.On("Issue", mock.Anything, "a@x.com").Return("", errors.New("redis down"))
			},
			errKind: apierror.KindInternal,
		},
		{
			name:  "mail fails",
			email: "a@x.com",
			setup: func(d registrationDeps) {
				d.passcodes.On("Issue", mock.Anything, "a@x.com").Return("123456", nil)
				d.notifier.On("SendPasscode", mock.Anything, "a@x.com", "123456").Return(context.DeadlineExceeded)
			},
			errKind: apierror.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, d := newTestRegistration(t)
			tt.setup(d)

			_, err := r.Register(context.Background(), model.RegisterRequest{Email: tt.email})
			require.Error(t, err)
			assert.Equal(t, tt.errKind, apierror.KindOf(err))
		})
	}
}

func TestRegistration_Complete(t *testing.T) {
	t.Parallel()

	r, d := newTestRegistration(t)
	d.accounts.On("GetByEmail", mock.Anything, "a@x.com").Return(model.Account{}, model.ErrNotFound)
	d.passcodes.On("Verify", mock.Anything, "a@x.com", "123456").Return(nil)
	d.hasher.On("Hash", "pw").Return("hashed", nil)
	d.accounts.On("Create", mock.Anything, mock.MatchedBy(func(a model.Account) bool {
		return a.Email == "a@x.com" && a.Name == "Ann" && a.PasswordHash == "hashed" && a.ID != uuid.Nil
	})).Return(func(_ context.Context, a model.Account) (model.Account, error) {
		return a, nil
	})

	res, err := r.Register(context.Background(), model.RegisterRequest{
		Email: "a@x.com", Password: "pw", Code: "123456", Name: "Ann",
	})
	require.NoError(t, err)
	assert.False(t, res.CodeSent)
	assert.NotEqual(t, uuid.Nil, res.AccountID)
}

func TestRegistration_Complete_ExistingAccountIgnoresCode(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"123456", "000000"} {
		r, d := newTestRegistration(t)
		d.accounts.On("GetByEmail", mock.Anything, "a@x.com").Return(model.Account{ID: uuid.New()}, nil)

		_, err := r.Register(context.Background(), model.RegisterRequest{Email: "a@x.com", Password: "pw", Code: code})
		require.Error(t, err)
		assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
		d.passcodes.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestRegistration_Complete_Errors(t *testing.T) {
	t.Parallel()

	req := model.RegisterRequest{Email: "a@x.com", Password: "pw", Code: "123456"}

	tests := []struct {
		name    string
		req     model.RegisterRequest
		setup   func(d registrationDeps)
		errKind apierror.Kind
	}{
		{
			name:    "missing password",
			req:     model.RegisterRequest{Email: "a@x.com", Code: "123456"},
			setup:   func(registrationDeps) {},
			errKind: apierror.KindValidation,
		},
		{
			name: "lookup fails",
			req:  req,
			setup: func(d registrationDeps) {
				d.accounts.On("GetByEmail", mock.Anything, "a@x.com").Return(model.Account{}, errors.New("db down"))
			},
			errKind: apierror.KindInternal,
		},
		{
			name: "code expired",
			req:  req,
			setup: func(d registrationDeps) {
				d.accounts.On("GetByEmail", mock.Anything, "a@x.com").Return(model.Account{}, model.ErrNotFound)
				d.passcodes.On("Verify", mock.Anything, "a@x.com", "123456").Return(model.ErrPasscodeNotFound)
			},
			errKind: apierror.KindInvalidCode,
		},
		{
			name: "code mismatch",
			req:  req,
			setup: func(d registrationDeps) {
				d.accounts.On("GetByEmail", mock.Anything, "a@x.com").Return(model.Account{}, model.ErrNotFound)
				d.passcodes.On("Verify", mock.Anything, "a@x.com", "123456").Return(model.ErrPasscodeMismatch)
			},
			errKind: apierror.KindInvalidCode,
		},
		{
			name: "cache unavailable",
			req:  req,
			setup: func(d registrationDeps) {
				d.accounts.On("GetByEmail", mock.Anything, "a@x.com").Return(model.Account{}, model.ErrNotFound)
				d.passcodes.On("Verify", mock.Anything, "a@x.com", "123456").Return(errors.New("redis down"))
			},
			errKind: apierror.KindInternal,
		},
		{
			name: "hash fails",
			req:  req,
			setup: func(d registrationDeps) {
				d.accounts.On("GetByEmail", mock.Anything, "a@x.com").Return(model.Account{}, model.ErrNotFound)
				d.passcodes.On("Verify", mock.Anything, "a@x.com", "123456").Return(nil)
				d.hasher.On("Hash", "pw").Return("", errors.New("too long"))
			},
			errKind: apierror.KindInternal,
		},
		{
			name: "lost race",
			req:  req,
			setup: func(d registrationDeps) {
				d.accounts.On("GetByEmail", mock.Anything, "a@x.com").Return(model.Account{}, model.ErrNotFound)
				d.passcodes.On("Verify", mock.Anything, "a@x.com", "123456").Return(nil)
				d.hasher.On("Hash", "pw").Return("hashed", nil)
				d.accounts.On("Create", mock.Anything, mock.Anything).Return(model.Account{}, model.ErrAlreadyExists)
			},
			errKind: apierror.KindConflict,
		},
		{
			name: "create fails",
			req:  req,
			setup: func(d registrationDeps) {
				d.accounts.On("GetByEmail", mock.Anything, "a@x.com").Return(model.Account{}, model.ErrNotFound)
				d.passcodes.On("Verify", mock.Anything, "a@x.com", "123456").Return(nil)
				d.hasher.On("Hash", "pw").Return("hashed", nil)
				d.accounts.On("Create", mock.Anything, mock.Anything).Return(model.Account{}, errors.New("db down"))
			},
			errKind: apierror.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, d := newTestRegistration(t)
			tt.setup(d)

			_, err := r.Register(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.errKind, apierror.KindOf(err))
		})
	}
}
