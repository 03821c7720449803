package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/dbx"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/logging"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/models"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/accounts"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/sessions"
)

// fakeAccounts is an in-memory accounts.Repository for service tests.
type fakeAccounts struct {
	mu   sync.Mutex
	byID map[string]*models.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: make(map[string]*models.Account)}
}

func (f *fakeAccounts) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == account.Email {
			return nil, common.ErrEmailTaken
		}
	}
	cp := *account
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetByGoogleID(ctx context.Context, googleID string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.GoogleID != nil && *a.GoogleID == googleID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeAccounts) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if err == common.ErrNotFound {
		return false, nil
	}
	return false, err
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, id, name, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	a.Name = name
	a.AvatarURL = avatarURL
	return nil
}

func (f *fakeAccounts) LinkGoogleID(ctx context.Context, id, googleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	a.GoogleID = &googleID
	return nil
}

func (f *fakeAccounts) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	a.ResetToken = &token
	a.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeAccounts) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.ResetToken = nil
	a.ResetTokenExpiresAt = nil
	return nil
}

func (f *fakeAccounts) IncrementGenerationsUsed(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	a.GenerationsUsed++
	return a.GenerationsUsed, nil
}

// fakeSessions is an in-memory sessions.Repository. createErrs, when
// non-empty, is popped and returned by successive Create calls so tests can
// simulate token collisions.
type fakeSessions struct {
	mu         sync.Mutex
	byToken    map[string]*models.RefreshSession
	createErrs []error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byToken: make(map[string]*models.RefreshSession)}
}

func (f *fakeSessions) Create(ctx context.Context, session *models.RefreshSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := f.byToken[session.Token]; ok {
		return common.ErrAlreadyExists
	}
	cp := *session
	f.byToken[cp.Token] = &cp
	return nil
}

func (f *fakeSessions) FindValid(ctx context.Context, token string) (*models.RefreshSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byToken[token]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, common.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) Delete(ctx context.Context, token string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byToken[token]; !ok {
		return 0, nil
	}
	delete(f.byToken, token)
	return 1, nil
}

func (f *fakeSessions) DeleteAllForAccount(ctx context.Context, accountID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for token, s := range f.byToken {
		if s.AccountID == accountID {
			delete(f.byToken, token)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) DeleteExpired(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var n int64
	for token, s := range f.byToken {
		if !s.ExpiresAt.After(now) {
			delete(f.byToken, token)
			n++
		}
	}
	return n, nil
}

// fakeRepoManager hands out the in-memory repositories regardless of the
// DBTX, so transactional code paths exercise the same state.
type fakeRepoManager struct {
	accounts *fakeAccounts
	sessions *fakeSessions
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{accounts: newFakeAccounts(), sessions: newFakeSessions()}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository { return m.accounts }

func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessions.Repository { return m.sessions }

// newMockDB returns a sqlmock-backed *sql.DB for code paths that only open
// and close transactions around the in-memory fakes.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error creating mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
