package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/middleware"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/service"
)

// PostService is the slice of the post service the handlers use.
type PostService interface {
	List(ctx context.Context) ([]*model.Post, error)
	Get(ctx context.Context, id int64) (*model.Post, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*model.Post, error)
	Create(ctx context.Context, ownerID int64, title, content string) (*model.Post, error)
	GetForEdit(ctx context.Context, id, ownerID int64) (*model.Post, error)
	Update(ctx context.Context, id, ownerID int64, title, content string) error
	Delete(ctx context.Context, id, ownerID int64) (bool, error)
}

// PostHandler serves the public pages and the owner-scoped post CRUD.
type PostHandler struct {
	*Base
	posts PostService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(base *Base, posts PostService) *PostHandler {
	return &PostHandler{Base: base, posts: posts}
}

// postForm preserves the title and content across a failed submission.
type postForm struct {
	ID      int64
	Title   string
	Content string
}

// postPage is the view model for a single post page.
type postPage struct {
	Post    *model.Post
	IsOwner bool
}

// Home shows the landing page with the latest posts.
//
// GET /
func (h *PostHandler) Home(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.serverError(w, r, "list posts", err)
		return
	}
	if len(posts) > 5 {
		posts = posts[:5]
	}
	h.render(w, r, http.StatusOK, "index", "Home", posts)
}

// List shows every post, newest first.
//
// GET /blogs
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.serverError(w, r, "list posts", err)
		return
	}
	h.render(w, r, http.StatusOK, "blogs", "All posts", posts)
}

// Show displays a single post. The edit and delete controls appear only
// for the owner; the server still enforces ownership on submission.
//
// GET /blogs/{id}
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	switch {
	case err == nil:
		h.render(w, r, http.StatusOK, "blog", post.Title, postPage{
			Post:    post,
			IsOwner: post.AuthorID == auth.UserIDFromContext(r.Context()),
		})
	case errors.Is(err, service.ErrPostNotFound):
		http.NotFound(w, r)
	default:
		h.serverError(w, r, "get post", err)
	}
}

// MyPosts lists the signed-in user's own posts.
//
// GET /my-posts
func (h *PostHandler) MyPosts(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustPrincipalFromContext(r.Context())

	posts, err := h.posts.ListByOwner(r.Context(), principal.UserID)
	if err != nil {
		h.serverError(w, r, "list own posts", err)
		return
	}
	h.render(w, r, http.StatusOK, "my_posts", "My posts", posts)
}

// NewForm shows the post composer.
//
// GET /blogs/new
func (h *PostHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "post_new", "New post", postForm{})
}

// Create publishes a new post owned by the signed-in user.
//
// POST /blogs
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustPrincipalFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		h.Flash(w, r, model.FlashError, "Could not read the form. Please try again.")
		http.Redirect(w, r, "/blogs/new", http.StatusSeeOther)
		return
	}

	title := r.PostFormValue("title")
	content := r.PostFormValue("content")

	post, err := h.posts.Create(r.Context(), principal.UserID, title, content)
	switch {
	case err == nil:
		h.logger.Info("post published",
			slog.Int64("post_id", post.ID),
			slog.Int64("user_id", principal.UserID),
		)
		h.Flash(w, r, model.FlashSuccess, "Post published.")
		http.Redirect(w, r, "/blogs", http.StatusSeeOther)
	case errors.Is(err, service.ErrInvalidTitle):
		h.Flash(w, r, model.FlashError, "Titles must be between 1 and 200 characters.")
		http.Redirect(w, r, "/blogs/new", http.StatusSeeOther)
	case errors.Is(err, service.ErrInvalidContent):
		h.Flash(w, r, model.FlashError, "Posts need some content.")
		http.Redirect(w, r, "/blogs/new", http.StatusSeeOther)
	default:
		// The user asked for a write and did not get one; surfacing the
		// failure beats silently dropping their post.
		h.logger.Error("create post failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.Flash(w, r, model.FlashError, "Could not save the post. Please try again.")
		http.Redirect(w, r, "/blogs/new", http.StatusSeeOther)
	}
}

// EditForm shows the composer pre-filled with an existing post. Only the
// owner gets the form: anyone else sees 403, a missing post 404.
//
// GET /blogs/{id}/edit
func (h *PostHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustPrincipalFromContext(r.Context())

	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.GetForEdit(r.Context(), id, principal.UserID)
	switch {
	case err == nil:
		h.render(w, r, http.StatusOK, "post_edit", "Edit post", postForm{
			ID:      post.ID,
			Title:   post.Title,
			Content: post.Content,
		})
	case errors.Is(err, service.ErrPostNotFound):
		http.NotFound(w, r)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	default:
		h.serverError(w, r, "load post for edit", err)
	}
}

// Update saves changes to a post the signed-in user owns.
//
// POST /blogs/{id}/edit
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustPrincipalFromContext(r.Context())

	id, ok := h.postID(w, r)
	if !ok {
		return
	}
	editPath := fmt.Sprintf("/blogs/%d/edit", id)

	if err := r.ParseForm(); err != nil {
		h.Flash(w, r, model.FlashError, "Could not read the form. Please try again.")
		http.Redirect(w, r, editPath, http.StatusSeeOther)
		return
	}

	title := r.PostFormValue("title")
	content := r.PostFormValue("content")

	err := h.posts.Update(r.Context(), id, principal.UserID, title, content)
	switch {
	case err == nil:
		h.Flash(w, r, model.FlashSuccess, "Post updated.")
		http.Redirect(w, r, fmt.Sprintf("/blogs/%d", id), http.StatusSeeOther)
	case errors.Is(err, service.ErrInvalidTitle):
		h.Flash(w, r, model.FlashError, "Titles must be between 1 and 200 characters.")
		http.Redirect(w, r, editPath, http.StatusSeeOther)
	case errors.Is(err, service.ErrInvalidContent):
		h.Flash(w, r, model.FlashError, "Posts need some content.")
		http.Redirect(w, r, editPath, http.StatusSeeOther)
	case errors.Is(err, service.ErrPostNotFound):
		http.NotFound(w, r)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	default:
		h.logger.Error("update post failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.Flash(w, r, model.FlashError, "Could not save your changes. Please try again.")
		http.Redirect(w, r, editPath, http.StatusSeeOther)
	}
}

// Delete removes a post the signed-in user owns. Deleting someone
// else's post, or one already gone, is a no-op that still redirects.
//
// POST /blogs/{id}/delete
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustPrincipalFromContext(r.Context())

	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	deleted, err := h.posts.Delete(r.Context(), id, principal.UserID)
	if err != nil {
		h.logger.Error("delete post failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.Flash(w, r, model.FlashError, "Could not delete the post. Please try again.")
		http.Redirect(w, r, "/my-posts", http.StatusSeeOther)
		return
	}

	if !deleted {
		h.logger.Debug("delete matched no owned post",
			slog.Int64("post_id", id),
			slog.Int64("user_id", principal.UserID),
		)
	}
	h.Flash(w, r, model.FlashSuccess, "Post deleted.")
	http.Redirect(w, r, "/my-posts", http.StatusSeeOther)
}

// postID parses the {id} route parameter, answering 404 for garbage.
func (h *PostHandler) postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func (h *PostHandler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(op+" failed",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
