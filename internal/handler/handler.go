// Package handler provides HTTP request handlers.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/web"
)

// FlashStore queues and drains one-time messages keyed by flash ID.
type FlashStore interface {
	PushFlash(ctx context.Context, flashID string, flash model.Flash) error
	PopFlashes(ctx context.Context, flashID string) ([]model.Flash, error)
}

// Config holds the cookie settings shared by all handlers.
type Config struct {
	SessionCookieName string
	FlashCookieName   string
	// SecureCookies marks cookies Secure; off in development over HTTP.
	SecureCookies bool
}

// Base carries the dependencies every page handler needs: the template
// renderer, the flash queue and cookie settings. It implements the
// Flasher interface the middleware gate uses.
type Base struct {
	renderer *web.Renderer
	flashes  FlashStore
	logger   *slog.Logger
	cfg      Config
}

// NewBase creates the shared handler base.
func NewBase(renderer *web.Renderer, flashes FlashStore, logger *slog.Logger, cfg Config) *Base {
	if cfg.FlashCookieName == "" {
		cfg.FlashCookieName = "inkpost_flash"
	}
	return &Base{
		renderer: renderer,
		flashes:  flashes,
		logger:   logger,
		cfg:      cfg,
	}
}

// Flash queues a one-time message for the next rendered page. The flash
// queue lives server-side; the cookie only carries an opaque queue ID so
// anonymous visitors get flashes too. Failures are logged and swallowed:
// a lost notification must never fail the request that queued it.
func (b *Base) Flash(w http.ResponseWriter, r *http.Request, kind model.FlashKind, text string) {
	flashID := b.flashID(w, r)
	if err := b.flashes.PushFlash(r.Context(), flashID, model.Flash{Kind: kind, Text: text}); err != nil {
		b.logger.Warn("flash push failed", slog.String("error", err.Error()))
	}
}

// flashID returns the visitor's flash queue ID, minting one and setting
// its cookie if absent.
func (b *Base) flashID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(b.cfg.FlashCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := ulid.Make().String()
	http.SetCookie(w, &http.Cookie{
		Name:     b.cfg.FlashCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   900,
		HttpOnly: true,
		Secure:   b.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// popFlashes drains the visitor's queued messages for rendering.
func (b *Base) popFlashes(r *http.Request) []model.Flash {
	cookie, err := r.Cookie(b.cfg.FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	flashes, err := b.flashes.PopFlashes(r.Context(), cookie.Value)
	if err != nil {
		b.logger.Warn("flash pop failed", slog.String("error", err.Error()))
		return nil
	}
	return flashes
}

// render draws the named page with the request's principal and any
// pending flashes folded in.
func (b *Base) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	b.renderer.Render(w, status, page, web.PageData{
		Title:     title,
		Principal: auth.PrincipalFromContext(r.Context()),
		Flashes:   b.popFlashes(r),
		Data:      data,
	})
}

// setSessionCookie installs the session cookie. Its lifetime matches the
// session's absolute expiry so browser and server agree on when it dies.
func (b *Base) setSessionCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     b.cfg.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   b.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie immediately.
func (b *Base) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     b.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   b.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
