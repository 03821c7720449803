package models

import "time"

// RefreshSession is one logged-in client instance. Token is an opaque
// high-entropy value transported only in an HTTP-only cookie; it must never
// appear in logs. A session record is deleted on logout, rotation, expiry
// sweep, or account cascade, never soft-marked.
type RefreshSession struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
