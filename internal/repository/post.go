package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/inkpost/inkpost/internal/model"
)

// Common errors for post repository operations.
var (
	// ErrPostNotFound means no row matched the given post ID
	// (or, for owner-scoped queries, the ID/owner pair).
	ErrPostNotFound = errors.New("post not found")
)

const postColumns = `b.id, b.title, b.content, b.user_id, u.email, b.created_at`

// CreatePost inserts a new post and fills in the generated ID.
func (r *Repository) CreatePost(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO blogs (title, content, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		post.Title,
		post.Content,
		post.AuthorID,
		post.CreatedAt,
	).Scan(&post.ID)

	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// GetPostByID retrieves a post with its author's email.
func (r *Repository) GetPostByID(ctx context.Context, id int64) (*model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM blogs b
		JOIN users u ON u.id = b.user_id
		WHERE b.id = $1
	`

	post, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post by ID: %w", err)
	}

	return post, nil
}

// GetPostForOwner retrieves a post filtered by both post ID and owner ID.
// Owner-scoped loads (edit form) must use this, never GetPostByID, so a
// non-owner cannot read another user's draft through the edit path.
func (r *Repository) GetPostForOwner(ctx context.Context, id, ownerID int64) (*model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM blogs b
		JOIN users u ON u.id = b.user_id
		WHERE b.id = $1 AND b.user_id = $2
	`

	post, err := scanPost(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post for owner: %w", err)
	}

	return post, nil
}

// PostExists reports whether a post with the given ID exists at all.
// Used to distinguish "not found" from "not yours" after an owner-scoped
// query came back empty.
func (r *Repository) PostExists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM blogs WHERE id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}

	return exists, nil
}

// ListPosts retrieves all posts with author identity, newest first.
func (r *Repository) ListPosts(ctx context.Context) ([]*model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM blogs b
		JOIN users u ON u.id = b.user_id
		ORDER BY b.created_at DESC, b.id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ListPostsByOwner retrieves all posts owned by one user, newest first.
func (r *Repository) ListPostsByOwner(ctx context.Context, ownerID int64) ([]*model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM blogs b
		JOIN users u ON u.id = b.user_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, b.id DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by owner: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// UpdatePost updates title and content, filtered by both post ID and
// owner ID. Returns ErrPostNotFound when no row matched.
func (r *Repository) UpdatePost(ctx context.Context, id, ownerID int64, title, content string) error {
	query := `
		UPDATE blogs
		SET title = $3, content = $4
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query, id, ownerID, title, content)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}

	return nil
}

// DeletePost deletes a post filtered by both post ID and owner ID.
// Returns the number of rows affected; zero rows (missing or not owned)
// is not an error.
func (r *Repository) DeletePost(ctx context.Context, id, ownerID int64) (int64, error) {
	query := `
		DELETE FROM blogs
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete post: %w", err)
	}

	return result.RowsAffected(), nil
}

// scanPost scans a single row into a Post model.
func scanPost(row pgx.Row) (*model.Post, error) {
	var post model.Post
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.AuthorID,
		&post.AuthorEmail,
		&post.CreatedAt,
	)
	return &post, err
}

// collectPosts drains rows into a slice of posts.
func collectPosts(rows pgx.Rows) ([]*model.Post, error) {
	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}
