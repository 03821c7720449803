// Package randx provides helpers for generating opaque random values from a
// cryptographically secure source.
package randx

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
)

// HexString generates a random hexadecimal string from size random bytes.
// The resulting string is twice as long as size, since each byte expands to
// two hex characters.
func HexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// URLString generates a random URL-safe base64 string from size random bytes,
// without padding.
func URLString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
