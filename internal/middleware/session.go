package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/model"
)

// PrincipalResolver turns a session token into a live principal.
// A (nil, nil) result means Anonymous.
type PrincipalResolver interface {
	Principal(ctx context.Context, token string) (*model.Principal, error)
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger     *slog.Logger
	Resolver   PrincipalResolver
	CookieName string
}

// Session returns a middleware that restores the authenticated principal
// from the session cookie, if any. It never blocks a request: anonymous
// requests and session-store failures both continue without a principal;
// the authorization gate decides what anonymous means per route.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := cfg.Resolver.Principal(r.Context(), cookie.Value)
			if err != nil {
				// Session store unreachable: continue anonymous so
				// public pages keep working; gated routes bounce to
				// login.
				cfg.Logger.Error("session restore failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			if principal == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
