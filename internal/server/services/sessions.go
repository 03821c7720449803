package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/dbx"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/logging"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/randx"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/models"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	// sessionTokenBytes is the entropy of a refresh token; hex-encoded it
	// yields a 64-character value.
	sessionTokenBytes = 32

	// createAttempts bounds retries when a freshly generated token collides
	// with an existing row. With 256 bits of entropy a single retry is
	// already paranoia.
	createAttempts = 3
)

// SessionStore owns refresh-session lifecycle: minting, lookup, rotation,
// revocation, and the expiry sweep. Tokens are opaque random values; the
// store never logs them.
type SessionStore struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	ttl   time.Duration
	log   logging.Logger
}

func NewSessionStore(db *sql.DB, repos repomanager.RepositoryManager, ttl time.Duration, log logging.Logger) *SessionStore {
	return &SessionStore{db: db, repos: repos, ttl: ttl, log: log}
}

// TTL returns the configured session lifetime, which the transport layer
// also uses as the cookie MaxAge.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

func newSession(accountID string, ttl time.Duration) (*models.RefreshSession, error) {
	token, err := randx.HexString(sessionTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}
	now := time.Now()
	return &models.RefreshSession{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Create mints a session for the account. A token collision is retried with
// a fresh value a bounded number of times.
func (s *SessionStore) Create(ctx context.Context, accountID string) (*models.RefreshSession, error) {
	repo := s.repos.Sessions(s.db)

	for i := 0; i < createAttempts; i++ {
		session, err := newSession(accountID, s.ttl)
		if err != nil {
			return nil, err
		}

		err = repo.Create(ctx, session)
		if err == nil {
			return session, nil
		}
		if errors.Is(err, common.ErrAlreadyExists) {
			s.log.Warn(ctx, "session token collision, retrying", "attempt", i+1)
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("creating session: %w", common.ErrInternal)
}

// FindValid returns the unexpired session for the token. Absent, expired,
// and already-consumed tokens all yield common.ErrReauthRequired.
func (s *SessionStore) FindValid(ctx context.Context, token string) (*models.RefreshSession, error) {
	session, err := s.repos.Sessions(s.db).FindValid(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrReauthRequired
		}
		return nil, err
	}
	return session, nil
}

// Rotate atomically consumes the presented token and mints a replacement
// for the same account. When two requests race on one token, the loser's
// delete affects zero rows and the rotation fails exactly like a stale
// token would.
func (s *SessionStore) Rotate(ctx context.Context, token string) (*models.RefreshSession, error) {
	var next *models.RefreshSession

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Sessions(tx)

		old, err := repo.FindValid(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrReauthRequired
			}
			return err
		}

		affected, err := repo.Delete(ctx, token)
		if err != nil {
			return err
		}
		if affected == 0 {
			return common.ErrReauthRequired
		}

		next, err = newSession(old.AccountID, s.ttl)
		if err != nil {
			return err
		}
		return repo.Create(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	return next, nil
}

// Revoke deletes the session and reports whether a row actually went away.
// Revoking an unknown token is not an error.
func (s *SessionStore) Revoke(ctx context.Context, token string) (bool, error) {
	affected, err := s.repos.Sessions(s.db).Delete(ctx, token)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RevokeAll deletes every session of the account ("log out everywhere").
func (s *SessionStore) RevokeAll(ctx context.Context, accountID string) (int64, error) {
	return s.repos.Sessions(s.db).DeleteAllForAccount(ctx, accountID)
}

// SweepExpired removes expired rows. Called only by the background sweeper;
// request paths rely on FindValid treating expired rows as absent.
func (s *SessionStore) SweepExpired(ctx context.Context) (int64, error) {
	return s.repos.Sessions(s.db).DeleteExpired(ctx)
}
