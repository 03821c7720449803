package httpapi

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/dbx"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/logging"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/auth"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/config"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/models"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/accounts"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/oauthstates"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/sessions"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/services"
)

// memAccounts is a minimal in-memory accounts.Repository for transport
// tests.
type memAccounts struct {
	mu   sync.Mutex
	byID map[string]*models.Account
}

func (m *memAccounts) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == a.Email {
			return nil, common.ErrEmailTaken
		}
	}
	cp := *a
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == email {
			cp := *x
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *x
	return &cp, nil
}

func (m *memAccounts) GetByGoogleID(ctx context.Context, googleID string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.GoogleID != nil && *x.GoogleID == googleID {
			cp := *x
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memAccounts) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (m *memAccounts) UpdateProfile(ctx context.Context, id, name, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	x.Name = name
	x.AvatarURL = avatarURL
	return nil
}

func (m *memAccounts) LinkGoogleID(ctx context.Context, id, googleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	x.GoogleID = &googleID
	return nil
}

func (m *memAccounts) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	x.ResetToken = &token
	x.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (m *memAccounts) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	x.PasswordHash = passwordHash
	x.ResetToken = nil
	x.ResetTokenExpiresAt = nil
	return nil
}

func (m *memAccounts) IncrementGenerationsUsed(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	x.GenerationsUsed++
	return x.GenerationsUsed, nil
}

// memSessions is a minimal in-memory sessions.Repository.
type memSessions struct {
	mu      sync.Mutex
	byToken map[string]*models.RefreshSession
}

func (m *memSessions) Create(ctx context.Context, s *models.RefreshSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byToken[s.Token]; ok {
		return common.ErrAlreadyExists
	}
	cp := *s
	m.byToken[cp.Token] = &cp
	return nil
}

func (m *memSessions) FindValid(ctx context.Context, token string) (*models.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byToken[token]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, common.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) Delete(ctx context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byToken[token]; !ok {
		return 0, nil
	}
	delete(m.byToken, token)
	return 1, nil
}

func (m *memSessions) DeleteAllForAccount(ctx context.Context, accountID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.byToken {
		if s.AccountID == accountID {
			delete(m.byToken, token)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) DeleteExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var n int64
	for token, s := range m.byToken {
		if !s.ExpiresAt.After(now) {
			delete(m.byToken, token)
			n++
		}
	}
	return n, nil
}

type memRepoManager struct {
	accounts *memAccounts
	sessions *memSessions
}

func (m *memRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *memRepoManager) Accounts(db dbx.DBTX) accounts.Repository           { return m.accounts }
func (m *memRepoManager) Sessions(db dbx.DBTX) sessions.Repository           { return m.sessions }

// stubSettings is a switchable maintenance flag.
type stubSettings struct{ maintenance bool }

func (s *stubSettings) MaintenanceMode(ctx context.Context) bool { return s.maintenance }

// stubExchanger resolves any code of the form "code:<provider id>:<email>".
type stubExchanger struct{}

func (stubExchanger) AuthURL(state string) string {
	return "https://provider.example.com/consent?state=" + state
}

func (stubExchanger) Exchange(ctx context.Context, code string) (*services.ExternalIdentity, error) {
	parts := strings.Split(code, ":")
	if len(parts) != 3 || parts[0] != "code" {
		return nil, fmt.Errorf("bad code")
	}
	return &services.ExternalIdentity{ProviderID: parts[1], Email: parts[2], Name: "Provider User"}, nil
}

type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	settings *stubSettings
	mailer   *recordMailer
	redis    *miniredis.Miniredis
}

type recordMailer struct {
	mu    sync.Mutex
	links []string
}

func (m *recordMailer) SendResetLink(ctx context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *recordMailer) lastLink(t *testing.T) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.links) == 0 {
		t.Fatalf("no reset link recorded")
	}
	return m.links[len(m.links)-1]
}

// newTestEnv wires the full stack over in-memory storage and starts an
// httptest server with a cookie-jar client, so tests exercise the real
// cookie contract end to end.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error creating mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	// Rotation opens transactions around the in-memory repos; allow a
	// generous number of begin/commit/rollback pairs in any order.
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 16; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	repos := &memRepoManager{
		accounts: &memAccounts{byID: make(map[string]*models.Account)},
		sessions: &memSessions{byToken: make(map[string]*models.RefreshSession)},
	}
	mailer := &recordMailer{}

	sessionStore := services.NewSessionStore(db, repos, cfg.RefreshSessionValidityDuration, log)
	signer := auth.NewSigner([]byte(cfg.SecretKey))
	hasher := auth.NewHasher(bcrypt.MinCost)
	csrf := services.NewCSRFGuard()
	authSvc := services.NewAuthService(db, repos, sessionStore, csrf, signer, hasher, mailer, log, cfg)
	states := oauthstates.NewRedisRepository(rdb)
	oauthSvc := services.NewOAuthService(db, repos, states, authSvc, log, cfg.OAuthStateValidityDuration, cfg.DefaultGenerationsLimit)

	settings := &stubSettings{}
	srv := NewServer(authSvc, oauthSvc, csrf, settings, stubExchanger{}, log, cfg)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("error creating cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{server: ts, client: client, settings: settings, mailer: mailer, redis: mr}
}

func (e *testEnv) postJSON(t *testing.T, path, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("error building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func (e *testEnv) get(t *testing.T, path string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	if err != nil {
		t.Fatalf("error building request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// cookieValue returns the named cookie currently held by the client jar.
func (e *testEnv) cookieValue(t *testing.T, name string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL, nil)
	if err != nil {
		t.Fatalf("error building request: %v", err)
	}
	for _, c := range e.client.Jar.Cookies(req.URL) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
