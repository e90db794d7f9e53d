package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/cache"
	"github.com/inkpost/inkpost/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestIDGenerated(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if captured == "" {
		t.Fatal("expected a generated request ID")
	}
	if got := rec.Header().Get(RequestIDHeader); got != captured {
		t.Errorf("response header = %q, context = %q", got, captured)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured != "client-supplied-id" {
		t.Errorf("request ID = %q, want client-supplied-id", captured)
	}
}

type stubResolver struct {
	principal *model.Principal
	err       error
	gotToken  string
}

func (s *stubResolver) Principal(_ context.Context, token string) (*model.Principal, error) {
	s.gotToken = token
	return s.principal, s.err
}

func TestSessionRestoresPrincipal(t *testing.T) {
	resolver := &stubResolver{principal: &model.Principal{UserID: 7, Email: "amy@example.com"}}
	mw := Session(SessionConfig{
		Logger:     discardLogger(),
		Resolver:   resolver,
		CookieName: "inkpost_session",
	})

	var got *model.Principal
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "inkpost_session", Value: strings.Repeat("ab", 32)})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.UserID != 7 {
		t.Fatalf("principal = %+v, want user 7", got)
	}
	if resolver.gotToken != strings.Repeat("ab", 32) {
		t.Errorf("resolver token = %q", resolver.gotToken)
	}
}

func TestSessionNoCookieStaysAnonymous(t *testing.T) {
	resolver := &stubResolver{}
	mw := Session(SessionConfig{Logger: discardLogger(), Resolver: resolver, CookieName: "inkpost_session"})

	var got *model.Principal
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.PrincipalFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != nil {
		t.Errorf("principal = %+v, want nil", got)
	}
	if resolver.gotToken != "" {
		t.Error("resolver should not be called without a cookie")
	}
}

func TestSessionResolverErrorContinuesAnonymous(t *testing.T) {
	resolver := &stubResolver{err: errors.New("redis down")}
	mw := Session(SessionConfig{Logger: discardLogger(), Resolver: resolver, CookieName: "inkpost_session"})

	called := false
	var got *model.Principal
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got = auth.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "inkpost_session", Value: strings.Repeat("cd", 32)})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Fatal("handler should still run when the session store fails")
	}
	if got != nil {
		t.Errorf("principal = %+v, want nil", got)
	}
}

type recordingFlasher struct {
	kind model.FlashKind
	text string
}

func (f *recordingFlasher) Flash(_ http.ResponseWriter, _ *http.Request, kind model.FlashKind, text string) {
	f.kind = kind
	f.text = text
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	flash := &recordingFlasher{}
	mw := RequireAuth(GateConfig{Logger: discardLogger(), Flash: flash, LoginPath: "/login"})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/my-posts", nil))

	if called {
		t.Error("handler should not run for anonymous requests")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
	if flash.kind != model.FlashError {
		t.Errorf("flash kind = %q, want error", flash.kind)
	}
}

func TestRequireAuthAllowsPrincipal(t *testing.T) {
	flash := &recordingFlasher{}
	mw := RequireAuth(GateConfig{Logger: discardLogger(), Flash: flash, LoginPath: "/login"})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/my-posts", nil)
	ctx := auth.ContextWithPrincipal(req.Context(), &model.Principal{UserID: 3, Email: "bob@example.com"})
	handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))

	if !called {
		t.Fatal("handler should run for authenticated requests")
	}
	if flash.text != "" {
		t.Errorf("unexpected flash %q", flash.text)
	}
}

type stubLimiter struct {
	result *cache.RateLimitResult
	err    error
	gotIP  string
}

func (s *stubLimiter) CheckLoginRateLimit(_ context.Context, ip string, _ float64, _ int) (*cache.RateLimitResult, error) {
	s.gotIP = ip
	return s.result, s.err
}

func TestLoginRateLimitAllows(t *testing.T) {
	limiter := &stubLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 4}}
	mw := LoginRateLimit(RateLimitConfig{
		Logger:       discardLogger(),
		Limiter:      limiter,
		Enabled:      true,
		RPS:          1,
		Burst:        5,
		Flash:        &recordingFlasher{},
		RedirectPath: "/login",
	})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Fatal("handler should run when the bucket has tokens")
	}
	if limiter.gotIP != "203.0.113.9" {
		t.Errorf("limiter IP = %q, want 203.0.113.9", limiter.gotIP)
	}
}

func TestLoginRateLimitDenies(t *testing.T) {
	flash := &recordingFlasher{}
	limiter := &stubLimiter{result: &cache.RateLimitResult{Allowed: false, RetryAfter: 2 * time.Second}}
	mw := LoginRateLimit(RateLimitConfig{
		Logger:       discardLogger(),
		Limiter:      limiter,
		Enabled:      true,
		RPS:          1,
		Burst:        5,
		Flash:        flash,
		RedirectPath: "/login",
	})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("handler should not run when rate limited")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if flash.kind != model.FlashError {
		t.Errorf("flash kind = %q, want error", flash.kind)
	}
}

func TestLoginRateLimitFailsOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	mw := LoginRateLimit(RateLimitConfig{
		Logger:       discardLogger(),
		Limiter:      limiter,
		Enabled:      true,
		RPS:          1,
		Burst:        5,
		Flash:        &recordingFlasher{},
		RedirectPath: "/login",
	})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Fatal("limiter errors must not block logins")
	}
}

func TestLoginRateLimitDisabled(t *testing.T) {
	limiter := &stubLimiter{}
	mw := LoginRateLimit(RateLimitConfig{Logger: discardLogger(), Limiter: limiter, Enabled: false})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil))

	if !called {
		t.Fatal("disabled limiter should pass everything through")
	}
	if limiter.gotIP != "" {
		t.Error("limiter should not be consulted when disabled")
	}
}

func TestSecurityHeaders(t *testing.T) {
	mw := Security(SecurityConfig{IsDevelopment: true})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS should be absent in development, got %q", got)
	}

	mw = Security(SecurityConfig{IsDevelopment: false})
	rec = httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("Strict-Transport-Security"); got == "" {
		t.Error("HSTS should be set in production")
	}
}

func TestMaxBodySizeRejectsLargeBody(t *testing.T) {
	mw := MaxBodySize(16)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for oversized bodies")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/blogs", strings.NewReader(strings.Repeat("x", 64)))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}
