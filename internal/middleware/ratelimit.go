package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/inkpost/inkpost/internal/cache"
	"github.com/inkpost/inkpost/internal/model"
)

// LoginLimiter checks the per-IP token bucket for login attempts.
type LoginLimiter interface {
	CheckLoginRateLimit(ctx context.Context, ip string, ratePerSecond float64, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for the login rate limit middleware.
type RateLimitConfig struct {
	Logger       *slog.Logger
	Limiter      LoginLimiter
	Enabled      bool
	RPS          float64
	Burst        int
	Flash        Flasher
	RedirectPath string
}

// LoginRateLimit returns a middleware that limits login submissions per
// client IP. Denials flash an error and bounce back to the login form;
// the limiter itself fails open when Redis is unreachable.
func LoginRateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)

			result, err := cfg.Limiter.CheckLoginRateLimit(r.Context(), ip, cfg.RPS, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("login rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				cfg.Logger.Warn("login rate limited",
					slog.String("retry_after", result.RetryAfter.String()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				cfg.Flash.Flash(w, r, model.FlashError, "Too many login attempts. Please wait a moment and try again.")
				http.Redirect(w, r, cfg.RedirectPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client address without the port. Behind the
// RealIP middleware RemoteAddr is already the forwarded address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
