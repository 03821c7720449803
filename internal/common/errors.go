// Package common defines shared constants and sentinel errors used across
// the auth service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")

	// ErrUnauthorized carries the one generic message returned for every
	// credential failure shape: unknown email, OAuth-only account, wrong
	// password. The text must stay byte-identical across those paths.
	ErrUnauthorized = errors.New("invalid email or password")

	// ErrReauthRequired is returned when a refresh-session value is absent,
	// expired, or already consumed by rotation. The transport layer clears
	// both auth cookies when it sees this.
	ErrReauthRequired = errors.New("session expired, please log in again")

	// Validation errors (safe to show verbatim).
	ErrValidation       = errors.New("validation error")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")

	// ErrEmailTaken is the register conflict.
	ErrEmailTaken = errors.New("email already registered")

	// ErrAlreadyExists signals a uniqueness-constraint violation on an
	// opaque generated value; callers retry with a fresh value.
	ErrAlreadyExists = errors.New("already exists")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")

	// ErrExternalService marks a provider or mail-delivery failure after
	// retries are exhausted.
	ErrExternalService = errors.New("external service error")

	// ErrQuotaExceeded is returned when a free-tier account has used up its
	// generation allowance.
	ErrQuotaExceeded = errors.New("generation limit reached")
)
