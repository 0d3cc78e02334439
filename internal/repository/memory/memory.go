// Package memory implements the credential store in process memory for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/gophchat-server/internal/model"
)

// DB holds accounts and sessions behind one mutex.
type DB struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account
	byEmail  map[string]uuid.UUID
	sessions map[string]model.Session
}

func New() *DB {
	return &DB{
		accounts: make(map[uuid.UUID]model.Account),
		byEmail:  make(map[string]uuid.UUID),
		sessions: make(map[string]model.Session),
	}
}

var _ model.AccountStore = (*AccountRepo)(nil)
var _ model.SessionStore = (*SessionRepo)(nil)

// Ping always succeeds.
func (db *DB) Ping(context.Context) error {
	return nil
}

// --- AccountStore ---

type AccountRepo struct {
	db *DB
}

func (db *DB) NewAccountRepo() *AccountRepo {
	return &AccountRepo{db: db}
}

func copyAccount(a model.Account) model.Account {
	a.SessionIDs = slices.Clone(a.SessionIDs)
	if a.SessionIDs == nil {
		a.SessionIDs = []uuid.UUID{}
	}
	return a
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	id, ok := r.db.byEmail[email]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return copyAccount(r.db.accounts[id]), nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.accounts[id]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return copyAccount(a), nil
}

func (r *AccountRepo) Create(ctx context.Context, account model.Account) (model.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.byEmail[account.Email]; ok {
		return model.Account{}, model.ErrAlreadyExists
	}
	if _, ok := r.db.accounts[account.ID]; ok {
		return model.Account{}, model.ErrAlreadyExists
	}

	account = copyAccount(account)
	r.db.accounts[account.ID] = account
	r.db.byEmail[account.Email] = account.ID
	return copyAccount(account), nil
}

func (r *AccountRepo) AppendSession(ctx context.Context, accountID, sessionID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.accounts[accountID]
	if !ok {
		return model.ErrNotFound
	}
	a.SessionIDs = append(a.SessionIDs, sessionID)
	a.UpdatedAt = time.Now()
	r.db.accounts[accountID] = a
	return nil
}

func (r *AccountRepo) SetProfileImage(ctx context.Context, accountID uuid.UUID, key string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.accounts[accountID]
	if !ok {
		return model.ErrNotFound
	}
	a.ProfileImage = key
	a.UpdatedAt = time.Now()
	r.db.accounts[accountID] = a
	return nil
}

// --- SessionStore ---

type SessionRepo struct {
	db *DB
}

func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(ctx context.Context, session model.Session) (model.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.sessions[session.Token]; ok {
		return model.Session{}, model.ErrAlreadyExists
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	r.db.sessions[session.Token] = session
	return session, nil
}

func (r *SessionRepo) GetByToken(ctx context.Context, token string) (model.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[token]
	if !ok {
		return model.Session{}, model.ErrNotFound
	}
	return s, nil
}

func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[token]
	if !ok {
		return false, nil
	}
	r.db.removeLocked(s)
	return true, nil
}

func (r *SessionRepo) DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for _, s := range r.db.sessions {
		if s.AccountID == accountID {
			r.db.removeLocked(s)
			n++
		}
	}
	return n, nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for _, s := range r.db.sessions {
		if s.Expired(now) {
			r.db.removeLocked(s)
			n++
		}
	}
	return n, nil
}

// removeLocked drops s and detaches its id from the owner. Callers hold mu.
func (db *DB) removeLocked(s model.Session) {
	delete(db.sessions, s.Token)

	a, ok := db.accounts[s.AccountID]
	if !ok {
		return
	}
	a.SessionIDs = slices.DeleteFunc(slices.Clone(a.SessionIDs), func(id uuid.UUID) bool { return id == s.ID })
	a.UpdatedAt = time.Now()
	db.accounts[s.AccountID] = a
}
