package model

import "time"

// Post represents a blog post owned by exactly one user.
// AuthorEmail is denormalized at query time via a join; it is never stored.
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorID    int64     `json:"author_id"`
	AuthorEmail string    `json:"author_email"`
	CreatedAt   time.Time `json:"created_at"`
}
