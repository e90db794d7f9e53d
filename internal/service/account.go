// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/metrics"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/repository"
)

// Account service errors.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// One error, one message: the two causes must stay indistinguishable
	// to the client.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// decoyHash is a syntactically valid Argon2id PHC string verified against
// when the email is unknown, so both login failure causes cost one KDF run.
const decoyHash = "$argon2id$v=19$m=65536,t=3,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"

var validate = validator.New()

// UserStore is the persistence surface the account service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// SessionStore is the session persistence surface.
type SessionStore interface {
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// AccountService handles registration, login, logout, and principal
// resolution.
type AccountService struct {
	users      UserStore
	sessions   SessionStore
	sessionTTL time.Duration
	metrics    metrics.Recorder
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserStore, sessions SessionStore, sessionTTL time.Duration, recorder metrics.Recorder) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		metrics:    recorder,
	}
}

type registerInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=128"`
}

// Register creates a new account. It never authenticates the new user;
// the caller redirects to the login form on success.
func (s *AccountService) Register(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)

	if err := validateRegistration(email, password); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncUserRegistered()
	return nil
}

// Login verifies the credential pair and, on success, establishes a new
// session with an absolute expiry of sessionTTL from now.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn a KDF run so unknown email and wrong password
			// take comparable time.
			_, _ = auth.VerifyPassword(password, decoyHash)
			s.metrics.IncLoginFailure()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	token, err := auth.NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now().UTC()
	session := &model.Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.metrics.IncLoginSuccess()
	return session, nil
}

// Principal resolves a session token to an authenticated principal.
// Returns (nil, nil) for anything that should be treated as Anonymous:
// malformed tokens, unknown tokens, and sessions past their absolute
// expiry (destroyed lazily here).
func (s *AccountService) Principal(ctx context.Context, token string) (*model.Principal, error) {
	if err := auth.ValidateTokenFormat(token); err != nil {
		return nil, nil //nolint:nilerr
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if session.IsExpired(time.Now()) {
		s.metrics.IncSessionExpired()
		// Best effort - the Redis TTL reaps it anyway.
		_ = s.sessions.DeleteSession(ctx, token)
		return nil, nil
	}

	return &model.Principal{
		UserID: session.UserID,
		Email:  session.Email,
		Token:  token,
	}, nil
}

// Logout destroys the session. The operation either completes or reports
// an error; callers must not decide the response before it settles.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if err := auth.ValidateTokenFormat(token); err != nil {
		return nil //nolint:nilerr
	}

	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// validateRegistration maps validator field failures to the account
// errors the handlers flash to the user.
func validateRegistration(email, password string) error {
	in := registerInput{Email: email, Password: password}

	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Email":
			return ErrInvalidEmail
		case "Password":
			return ErrWeakPassword
		}
	}
	return fmt.Errorf("validate registration: %w", err)
}
