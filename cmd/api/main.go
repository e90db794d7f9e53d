// Package main is the entrypoint for the Inkpost server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/inkpost/inkpost/internal/cache"
	"github.com/inkpost/inkpost/internal/config"
	"github.com/inkpost/inkpost/internal/handler"
	"github.com/inkpost/inkpost/internal/metrics"
	"github.com/inkpost/inkpost/internal/middleware"
	"github.com/inkpost/inkpost/internal/repository"
	"github.com/inkpost/inkpost/internal/server"
	"github.com/inkpost/inkpost/internal/service"
	"github.com/inkpost/inkpost/internal/web"
)

func main() {
	ctx := context.Background()

	// In development a .env file stands in for real environment config.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if err := repository.Migrate(cfg.DatabaseURL); err != nil {
		logger.Error("failed to run migrations",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("database schema up to date")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	renderer, err := web.NewRenderer(logger)
	if err != nil {
		logger.Error("failed to parse templates", slog.String("error", err.Error()))
		os.Exit(1)
	}

	metricsRecorder := metrics.NewNoop()
	accountService := service.NewAccountService(repo, cacheClient, cfg.SessionTTL, metricsRecorder)
	postService := service.NewPostService(repo, metricsRecorder)

	base := handler.NewBase(renderer, cacheClient, logger, handler.Config{
		SessionCookieName: cfg.SessionCookieName,
		SecureCookies:     cfg.IsProduction(),
	})
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	accountHandler := handler.NewAccountHandler(base, accountService)
	postHandler := handler.NewPostHandler(base, postService)

	r := setupRouter(routerDeps{
		base:     base,
		health:   healthHandler,
		accounts: accountHandler,
		posts:    postHandler,
		resolver: accountService,
		limiter:  cacheClient,
		cfg:      cfg,
		logger:   logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Stores close last, after in-flight requests drain.
	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base     *handler.Base
	health   *handler.HealthHandler
	accounts *handler.AccountHandler
	posts    *handler.PostHandler
	resolver middleware.PrincipalResolver
	limiter  middleware.LoginLimiter
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: deps.cfg.IsDevelopment(),
	}))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))
	r.Use(middleware.Session(middleware.SessionConfig{
		Logger:     deps.logger,
		Resolver:   deps.resolver,
		CookieName: deps.cfg.SessionCookieName,
	}))

	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Public pages
	r.Get("/", deps.posts.Home)
	r.Get("/blogs", deps.posts.List)
	r.Get("/register", deps.accounts.RegisterForm)
	r.Post("/register", deps.accounts.Register)
	r.Get("/login", deps.accounts.LoginForm)
	r.With(middleware.LoginRateLimit(middleware.RateLimitConfig{
		Logger:       deps.logger,
		Limiter:      deps.limiter,
		Enabled:      deps.cfg.LoginRateLimitEnabled,
		RPS:          deps.cfg.LoginRateLimitRPS,
		Burst:        deps.cfg.LoginRateLimitBurst,
		Flash:        deps.base,
		RedirectPath: "/login",
	})).Post("/login", deps.accounts.Login)

	// Principal-scoped pages behind the authorization gate.
	requireAuth := middleware.RequireAuth(middleware.GateConfig{
		Logger:    deps.logger,
		Flash:     deps.base,
		LoginPath: "/login",
	})
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/logout", deps.accounts.Logout)
		r.Get("/my-posts", deps.posts.MyPosts)
		r.Get("/blogs/new", deps.posts.NewForm)
		r.Post("/blogs", deps.posts.Create)
		r.Get("/blogs/{id}/edit", deps.posts.EditForm)
		r.Post("/blogs/{id}/edit", deps.posts.Update)
		r.Post("/blogs/{id}/delete", deps.posts.Delete)
	})

	// Registered after /blogs/new so the literal route wins.
	r.Get("/blogs/{id}", deps.posts.Show)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
