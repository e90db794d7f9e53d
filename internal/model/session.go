package model

import "time"

// Session is the server-side state behind a session cookie.
// Expiry is absolute: ExpiresAt is fixed at creation and never extended.
type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session is past its absolute expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Principal is the authenticated identity attached to a request context.
type Principal struct {
	UserID int64
	Email  string
	// Token is the session token the principal was restored from.
	Token string
}
