// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account.
// Users are created at registration and never mutated or deleted.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
