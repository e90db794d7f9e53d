package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/inkpost/inkpost/internal/metrics"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/repository"
)

// Post service errors.
var (
	ErrPostNotFound   = errors.New("post not found")
	ErrForbidden      = errors.New("not the owner of this post")
	ErrInvalidTitle   = errors.New("title is required and must be at most 200 characters")
	ErrInvalidContent = errors.New("content is required and must be at most 100000 characters")
)

// PostStore is the persistence surface the post service needs.
type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id int64) (*model.Post, error)
	GetPostForOwner(ctx context.Context, id, ownerID int64) (*model.Post, error)
	PostExists(ctx context.Context, id int64) (bool, error)
	ListPosts(ctx context.Context) ([]*model.Post, error)
	ListPostsByOwner(ctx context.Context, ownerID int64) ([]*model.Post, error)
	UpdatePost(ctx context.Context, id, ownerID int64, title, content string) error
	DeletePost(ctx context.Context, id, ownerID int64) (int64, error)
}

// PostService handles post CRUD with owner-scoped mutation.
type PostService struct {
	posts   PostStore
	metrics metrics.Recorder
}

// NewPostService creates a new PostService.
func NewPostService(posts PostStore, recorder metrics.Recorder) *PostService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PostService{
		posts:   posts,
		metrics: recorder,
	}
}

type postInput struct {
	Title   string `validate:"required,max=200"`
	Content string `validate:"required,max=100000"`
}

// List returns all posts with author identity, newest first.
func (s *PostService) List(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Get returns a single post by ID.
func (s *PostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// ListByOwner returns the owner's posts, newest first.
func (s *PostService) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Post, error) {
	posts, err := s.posts.ListPostsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list posts by owner: %w", err)
	}
	return posts, nil
}

// Create inserts a new post owned by ownerID.
func (s *PostService) Create(ctx context.Context, ownerID int64, title, content string) (*model.Post, error) {
	title = strings.TrimSpace(title)

	if err := validatePostInput(title, content); err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:     title,
		Content:   content,
		AuthorID:  ownerID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.metrics.IncPostCreated()
	return post, nil
}

// GetForEdit loads a post for its owner's edit form. The load filters by
// both post ID and owner ID; a post that exists but belongs to someone
// else yields ErrForbidden, never the other user's draft.
func (s *PostService) GetForEdit(ctx context.Context, id, ownerID int64) (*model.Post, error) {
	post, err := s.posts.GetPostForOwner(ctx, id, ownerID)
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, repository.ErrPostNotFound) {
		return nil, fmt.Errorf("get post for edit: %w", err)
	}

	return nil, s.notFoundOrForbidden(ctx, id)
}

// Update rewrites title and content, filtered by both post ID and owner
// ID. A non-owner gets ErrForbidden; a missing post gets ErrPostNotFound.
func (s *PostService) Update(ctx context.Context, id, ownerID int64, title, content string) error {
	title = strings.TrimSpace(title)

	if err := validatePostInput(title, content); err != nil {
		return err
	}

	err := s.posts.UpdatePost(ctx, id, ownerID, title, content)
	if err == nil {
		s.metrics.IncPostUpdated()
		return nil
	}
	if !errors.Is(err, repository.ErrPostNotFound) {
		return fmt.Errorf("update post: %w", err)
	}

	return s.notFoundOrForbidden(ctx, id)
}

// Delete removes a post, filtered by both post ID and owner ID. Zero rows
// affected (missing or not owned) is an intentional silent no-op; the
// returned bool reports whether anything was deleted.
func (s *PostService) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	affected, err := s.posts.DeletePost(ctx, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}

	if affected == 0 {
		return false, nil
	}

	s.metrics.IncPostDeleted()
	return true, nil
}

// notFoundOrForbidden disambiguates an empty owner-scoped result:
// the post is either absent or owned by someone else.
func (s *PostService) notFoundOrForbidden(ctx context.Context, id int64) error {
	exists, err := s.posts.PostExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check post existence: %w", err)
	}
	if exists {
		return ErrForbidden
	}
	return ErrPostNotFound
}

// validatePostInput maps validator field failures to post errors.
func validatePostInput(title, content string) error {
	in := postInput{Title: title, Content: content}

	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Title":
			return ErrInvalidTitle
		case "Content":
			return ErrInvalidContent
		}
	}
	return fmt.Errorf("validate post: %w", err)
}
