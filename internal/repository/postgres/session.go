package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/gophchat-server/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session model.Session) (model.Session, error) {
	const query = `
        INSERT INTO sessions (id, provider, account_id, token, refresh_token, expires_at, created_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NOW())
        RETURNING created_at
    `

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		session.ID, session.Provider, session.AccountID, session.Token, session.RefreshToken, session.ExpiresAt,
	).Scan(&session.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Session{}, model.ErrAlreadyExists
		}
		return model.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (model.Session, error) {
	const query = `
        SELECT id, provider, account_id, token, COALESCE(refresh_token, ''), expires_at, created_at
        FROM sessions WHERE token = $1
    `
	var s model.Session
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&s.ID, &s.Provider, &s.AccountID, &s.Token, &s.RefreshToken, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session by token: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id, accountID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`DELETE FROM sessions WHERE token = $1 RETURNING id, account_id`, token,
	).Scan(&id, &accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET session_ids = array_remove(session_ids, $1::uuid), updated_at = NOW() WHERE id = $2`,
		id, accountID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to detach session from account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions by account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET session_ids = '{}', updated_at = NOW() WHERE id = $1`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear account sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

// DeleteExpired removes sessions whose record expiry is at or before now and
// prunes their ids from the owning accounts in one statement.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `
        WITH expired AS (
            DELETE FROM sessions WHERE expires_at <= $1 RETURNING id, account_id
        ), pruned AS (
            UPDATE accounts a
            SET session_ids = ARRAY(
                    SELECT sid FROM unnest(a.session_ids) AS sid
                    WHERE sid NOT IN (SELECT id FROM expired)
                ),
                updated_at = NOW()
            WHERE a.id IN (SELECT account_id FROM expired)
        )
        SELECT count(*) FROM expired
    `
	var n int64
	if err := r.db.QueryRowContext(ctx, query, now).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}
