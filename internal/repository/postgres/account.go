package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/gophchat-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

const accountColumns = `id, email, COALESCE(name, ''), password_hash, COALESCE(profile_image, ''),
			  array_to_string(session_ids, ','), created_at, updated_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (model.Account, error) {
	var (
		account    model.Account
		sessionIDs string
	)
	err := row.Scan(
		&account.ID, &account.Email, &account.Name, &account.PasswordHash, &account.ProfileImage,
		&sessionIDs, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return model.Account{}, err
	}

	account.SessionIDs, err = parseSessionIDs(sessionIDs)
	if err != nil {
		return model.Account{}, err
	}
	return account, nil
}

func parseSessionIDs(joined string) ([]uuid.UUID, error) {
	if joined == "" {
		return []uuid.UUID{}, nil
	}

	parts := strings.Split(joined, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("failed to parse session id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + `
			  FROM accounts WHERE email = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `SELECT ` + accountColumns + `
			  FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (id, email, name, password_hash, created_at, updated_at)
			  VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
			  RETURNING ` + accountColumns

	saved, err := scanAccount(r.db.QueryRowContext(ctx, query,
		account.ID, account.Email, account.Name, account.PasswordHash,
		account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrAlreadyExists
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) AppendSession(ctx context.Context, accountID, sessionID uuid.UUID) error {
	const query = `
        UPDATE accounts SET session_ids = array_append(session_ids, $1::uuid), updated_at = NOW()
        WHERE id = $2
    `
	res, err := r.db.ExecContext(ctx, query, sessionID, accountID)
	if err != nil {
		return fmt.Errorf("failed to append session: %w", err)
	}
	return requireAffected(res)
}

func (r *AccountRepository) SetProfileImage(ctx context.Context, accountID uuid.UUID, key string) error {
	const query = `
        UPDATE accounts SET profile_image = $1, updated_at = NOW()
        WHERE id = $2
    `
	res, err := r.db.ExecContext(ctx, query, key, accountID)
	if err != nil {
		return fmt.Errorf("failed to set profile image: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
