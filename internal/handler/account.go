package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/middleware"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/service"
)

// AccountService is the slice of the account service the handlers use.
type AccountService interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Logout(ctx context.Context, token string) error
}

// AccountHandler serves registration, login and logout.
type AccountHandler struct {
	*Base
	accounts AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(base *Base, accounts AccountService) *AccountHandler {
	return &AccountHandler{Base: base, accounts: accounts}
}

// credentialsForm preserves the email field across a failed submission.
type credentialsForm struct {
	Email string
}

// RegisterForm shows the registration page.
//
// GET /register
func (h *AccountHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if auth.PrincipalFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "register", "Register", credentialsForm{})
}

// Register creates a new account. Registration never signs the new user
// in; a fresh account always goes through the login flow.
//
// POST /register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Flash(w, r, model.FlashError, "Could not read the form. Please try again.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	err := h.accounts.Register(r.Context(), email, password)
	switch {
	case err == nil:
		h.Flash(w, r, model.FlashSuccess, "Account created. Please log in.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, service.ErrEmailTaken):
		h.Flash(w, r, model.FlashError, "That email is already registered.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
	case errors.Is(err, service.ErrInvalidEmail):
		h.Flash(w, r, model.FlashError, "Please enter a valid email address.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
	case errors.Is(err, service.ErrWeakPassword):
		h.Flash(w, r, model.FlashError, "Passwords must be at least 8 characters.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
	default:
		h.logger.Error("registration failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.Flash(w, r, model.FlashError, "Something went wrong. Please try again.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
	}
}

// LoginForm shows the login page.
//
// GET /login
func (h *AccountHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if auth.PrincipalFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", "Log in", credentialsForm{})
}

// Login verifies credentials and starts a session. Every credential
// failure gets the same message so the page never confirms whether an
// email is registered.
//
// POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Flash(w, r, model.FlashError, "Could not read the form. Please try again.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	session, err := h.accounts.Login(r.Context(), email, password)
	switch {
	case err == nil:
		h.setSessionCookie(w, session)
		h.Flash(w, r, model.FlashSuccess, "Welcome back.")
		http.Redirect(w, r, "/blogs", http.StatusSeeOther)
	case errors.Is(err, service.ErrInvalidCredentials):
		h.Flash(w, r, model.FlashError, "Invalid email or password.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		h.logger.Error("login failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.Flash(w, r, model.FlashError, "Something went wrong. Please try again.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// Logout destroys the session. The cookie is cleared only after the
// server-side record is gone; if the store call fails the session stays
// live and the user sees an error instead of a false goodbye.
//
// POST /logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cfg.SessionCookieName)
	if err != nil || cookie.Value == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := h.accounts.Logout(r.Context(), cookie.Value); err != nil {
		h.logger.Error("logout failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.Flash(w, r, model.FlashError, "Logout failed. Please try again.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.clearSessionCookie(w)
	h.Flash(w, r, model.FlashSuccess, "You have been logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
