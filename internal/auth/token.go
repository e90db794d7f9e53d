package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Session tokens are 32 random bytes, hex encoded (64 chars).
// The token is the only thing the cookie carries; all session state
// lives server-side keyed by it.
const tokenBytes = 32

var (
	// ErrInvalidTokenFormat indicates the token format is invalid.
	ErrInvalidTokenFormat = errors.New("invalid session token format")

	tokenFormatRegex = regexp.MustCompile(`^[a-f0-9]{64}$`)
)

// NewSessionToken generates a fresh opaque session token.
func NewSessionToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidateTokenFormat checks a cookie value before it is used as a
// Redis key. Rejecting garbage early keeps junk cookies out of the store.
func ValidateTokenFormat(token string) error {
	if !tokenFormatRegex.MatchString(token) {
		return ErrInvalidTokenFormat
	}
	return nil
}
