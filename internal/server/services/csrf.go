package services

import (
	"crypto/subtle"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/randx"
)

// csrfTokenBytes is the entropy of a CSRF token before base64url encoding.
const csrfTokenBytes = 32

// CSRFGuard implements the stateless double-submit check: the same opaque
// value travels in a JS-readable cookie and in a request header, and a
// mutating request is accepted only when the two match. Nothing is stored
// server-side.
type CSRFGuard struct{}

func NewCSRFGuard() *CSRFGuard {
	return &CSRFGuard{}
}

// Generate returns a fresh token. A new one is minted on every login,
// registration, OAuth callback, and session rotation.
func (g *CSRFGuard) Generate() (string, error) {
	return randx.URLString(csrfTokenBytes)
}

// Verify reports whether the cookie and header values match. Either value
// being empty fails; comparison is constant-time.
func (g *CSRFGuard) Verify(cookieValue, headerValue string) bool {
	if cookieValue == "" || headerValue == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieValue), []byte(headerValue)) == 1
}
