package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/gophchat-server/internal/model"
)

func TestSessionRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	now := time.Now().UTC()
	s := model.Session{
		ID:        uuid.New(),
		Provider:  model.ProviderPassword,
		AccountID: uuid.New(),
		Token:     "tok",
		ExpiresAt: now.Add(time.Hour),
	}

	mock.ExpectQuery(`INSERT INTO sessions`).
		WithArgs(s.ID, "password", s.AccountID, "tok", "", s.ExpiresAt).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	saved, err := repo.Create(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, s.ID, saved.ID)
	assert.Equal(t, now, saved.CreatedAt)
}

func TestSessionRepository_Create_AssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectQuery(`INSERT INTO sessions`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	saved, err := repo.Create(context.Background(), model.Session{Token: "tok"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
}

func TestSessionRepository_GetByToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	id, accountID := uuid.New(), uuid.New()
	exp := time.Now().Add(time.Hour).UTC()

	mock.ExpectQuery(`(?s)SELECT id, provider, account_id, token, .* FROM sessions WHERE token = \$1`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "provider", "account_id", "token", "refresh_token", "expires_at", "created_at"}).
			AddRow(id.String(), "password", accountID.String(), "tok", "", exp, time.Now()))

	s, err := repo.GetByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, accountID, s.AccountID)
	assert.Equal(t, exp, s.ExpiresAt)
}

func TestSessionRepository_GetByToken_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectQuery(`FROM sessions WHERE token = \$1`).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByToken(context.Background(), "gone")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSessionRepository_DeleteByToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	id, accountID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM sessions WHERE token = \$1 RETURNING id, account_id`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id"}).AddRow(id.String(), accountID.String()))
	mock.ExpectExec(`UPDATE accounts SET session_ids = array_remove\(session_ids, \$1::uuid\)`).
		WithArgs(id, accountID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	existed, err := repo.DeleteByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestSessionRepository_DeleteByToken_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM sessions WHERE token = \$1`).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	existed, err := repo.DeleteByToken(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestSessionRepository_DeleteByToken_UpdateFails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM sessions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id"}).AddRow(uuid.NewString(), uuid.NewString()))
	mock.ExpectExec(`UPDATE accounts`).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	_, err := repo.DeleteByToken(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestSessionRepository_DeleteByAccount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	accountID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM sessions WHERE account_id = \$1`).
		WithArgs(accountID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE accounts SET session_ids = '\{\}'`).
		WithArgs(accountID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.DeleteByAccount(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectQuery(`(?s)WITH expired AS \(\s*DELETE FROM sessions WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
