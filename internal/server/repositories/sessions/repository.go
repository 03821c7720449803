// Package sessions declares the persistence contract for refresh-session
// records.
package sessions

import (
	"context"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/models"
)

// Repository defines storage operations for refresh sessions. The opaque
// token value is the lookup key everywhere; rows are always deleted, never
// soft-marked, so a deleted or rotated token is indistinguishable from one
// that never existed.
type Repository interface {
	// Create inserts a session row. A collision on the unique token value
	// yields common.ErrAlreadyExists so the caller can retry with a fresh
	// token.
	Create(ctx context.Context, session *models.RefreshSession) error

	// FindValid returns the session only while expires_at is in the future.
	// An expired row behaves exactly like an absent one: common.ErrNotFound.
	FindValid(ctx context.Context, token string) (*models.RefreshSession, error)

	// Delete removes the session row and reports how many rows went away.
	// Zero means the token was absent or already consumed.
	Delete(ctx context.Context, token string) (int64, error)

	// DeleteAllForAccount removes every session of the account.
	DeleteAllForAccount(ctx context.Context, accountID string) (int64, error)

	// DeleteExpired removes all rows whose expiry has passed. Safe to run
	// concurrently with reads; a read losing the race observes not-found.
	DeleteExpired(ctx context.Context) (int64, error)
}
