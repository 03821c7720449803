package models

import "time"

// Role is the privilege tier of an account, ordered user < premium < admin.
type Role string

const (
	RoleUser    Role = "user"
	RolePremium Role = "premium"
	RoleAdmin   Role = "admin"
)

// Level returns the numeric privilege order of the role. Unknown roles rank
// below RoleUser.
func (r Role) Level() int {
	switch r {
	case RoleUser:
		return 1
	case RolePremium:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// Account is the identity record. PasswordHash is the empty string for
// accounts created through third-party sign-in only. Accounts are never
// hard-deleted by this subsystem; the sessions table cascades on the
// administrative delete.
type Account struct {
	ID                    string
	Email                 string
	Name                  string
	AvatarURL             string
	PasswordHash          string
	Role                  Role
	GenerationsUsed       int64
	GenerationsLimit      int64
	SubscriptionExpiresAt *time.Time
	GoogleID              *string
	ResetToken            *string
	ResetTokenExpiresAt   *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasActiveSubscription reports whether the account has a paid subscription
// that has not yet expired.
func (a *Account) HasActiveSubscription(now time.Time) bool {
	return a.SubscriptionExpiresAt != nil && a.SubscriptionExpiresAt.After(now)
}
