// Package auth implements the two stateless credential primitives of the
// service: JWT signing/verification for access and password-reset tokens,
// and adaptive password hashing.
package auth

import (
	"errors"
	"time"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates token purposes. A reset token is never accepted
// where an access token is expected, and vice versa.
type TokenKind string

const (
	TokenKindAccess TokenKind = "access"
	TokenKindReset  TokenKind = "reset"
)

// PasswordResetTTL is the fixed lifetime of password-reset tokens,
// independent of the configurable access-token TTL.
const PasswordResetTTL = 15 * time.Minute

// Claims is the signed claim set. Subject carries the account id.
type Claims struct {
	jwt.RegisteredClaims
	Email string    `json:"email"`
	Role  string    `json:"role"`
	Kind  TokenKind `json:"kind"`
}

// Signer issues and verifies compact HS256 tokens with a single
// process-wide key loaded at startup. Rotating the key invalidates all
// outstanding tokens of both kinds.
type Signer struct {
	secret []byte
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Issue produces a signed token of the given kind expiring after ttl.
func (s *Signer) Issue(kind TokenKind, accountID, email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Role:  role,
		Kind:  kind,
	})

	return token.SignedString(s.secret)
}

// Verify decodes the token and checks signature, expiry, and kind.
// An expired token yields common.ErrTokenExpired; any other defect,
// including a kind mismatch, yields common.ErrInvalidToken so callers can
// give different UX for the two conditions.
func (s *Signer) Verify(tokenString string, want TokenKind) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Kind != want || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
