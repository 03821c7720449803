// Package accounts declares the persistence contract for identity records.
package accounts

import (
	"context"
	"time"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/models"
)

// Repository defines operations over account rows. Implementations return
// common.ErrNotFound when a lookup matches nothing and common.ErrEmailTaken
// when Create hits the email uniqueness constraint.
type Repository interface {
	// Create inserts a new account. The caller assigns the id.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// GetByEmail looks up an account by its stored (normalized) email.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetByID looks up an account by id.
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// GetByGoogleID looks up an account by its linked external identity.
	GetByGoogleID(ctx context.Context, googleID string) (*models.Account, error)

	// ExistsByEmail reports whether an account with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateProfile overwrites the display name and avatar reference.
	UpdateProfile(ctx context.Context, id, name, avatarURL string) error

	// LinkGoogleID attaches an external identity to an existing account.
	LinkGoogleID(ctx context.Context, id, googleID string) error

	// SetResetToken records the outstanding password-reset token and its expiry.
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error

	// UpdatePassword overwrites the password hash and clears any outstanding
	// reset token in the same statement, making reset tokens single-use.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// IncrementGenerationsUsed bumps the usage counter and returns the new value.
	IncrementGenerationsUsed(ctx context.Context, id string) (int64, error)
}
