package middleware

import (
	"log/slog"
	"net/http"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/model"
)

// Flasher queues a one-time message for the next rendered page.
type Flasher interface {
	Flash(w http.ResponseWriter, r *http.Request, kind model.FlashKind, text string)
}

// GateConfig holds configuration for the authorization gate.
type GateConfig struct {
	Logger    *slog.Logger
	Flash     Flasher
	LoginPath string
}

// RequireAuth returns the authorization gate for principal-scoped routes.
// One deterministic decision per request: a live principal proceeds,
// anything else gets a flash and a redirect to the login page.
func RequireAuth(cfg GateConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.PrincipalFromContext(r.Context()) == nil {
				cfg.Logger.Warn("unauthenticated access denied",
					slog.String("path", r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				cfg.Flash.Flash(w, r, model.FlashError, "Please log in to continue.")
				http.Redirect(w, r, cfg.LoginPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
