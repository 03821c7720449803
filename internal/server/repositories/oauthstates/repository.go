// Package oauthstates stores the single-use anti-forgery nonces that guard
// the third-party sign-in round trip.
package oauthstates

import (
	"context"
	"time"
)

// Repository holds pending OAuth state values. A value lives for a short
// TTL and is consumed exactly once: the first Consume removes it no matter
// what, so replays of an otherwise-valid state fail.
type Repository interface {
	// Save persists the state value with the given TTL.
	Save(ctx context.Context, state string, ttl time.Duration) error

	// Consume atomically removes the state value and reports whether it was
	// present and unexpired.
	Consume(ctx context.Context, state string) (bool, error)
}
