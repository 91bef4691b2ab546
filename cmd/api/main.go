// Package main is the entrypoint for the ArkWatch API server.
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

	"github.com/arkforge/arkwatch/internal/cache"
	"github.com/arkforge/arkwatch/internal/config"
	"github.com/arkforge/arkwatch/internal/handler"
	"github.com/arkforge/arkwatch/internal/mailer"
	"github.com/arkforge/arkwatch/internal/metrics"
	"github.com/arkforge/arkwatch/internal/middleware"
	"github.com/arkforge/arkwatch/internal/repository"
	"github.com/arkforge/arkwatch/internal/server"
	"github.com/arkforge/arkwatch/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.PoolOptions{
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize services
	recorder := metrics.NewInMemory()
	mail := mailer.NewLogSender(logger)
	accountService := service.NewAccountService(repo, cacheClient, cfg.RateLimitRegistrationEnabled, cacheClient, mail, logger, recorder)
	watchService := service.NewWatchService(repo, recorder)
	gdprService := service.NewGDPRService(repo, repo, cacheClient, cfg.PrivacyPolicyURL, logger, recorder)

	// Initialize handlers
	h := handler.New(cfg.PrivacyPolicyURL)
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	accountHandler := handler.NewAccountHandler(accountService, gdprService, cfg.PrivacyPolicyURL, logger)
	watchHandler := handler.NewWatchHandler(watchService, logger)
	metricsHandler := handler.NewMetricsHandler(recorder)

	// Setup router
	r := setupRouter(h, healthHandler, accountHandler, watchHandler, metricsHandler, repo, cacheClient, recorder, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
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

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
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

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	accountHandler *handler.AccountHandler,
	watchHandler *handler.WatchHandler,
	metricsHandler *handler.MetricsHandler,
	repo *repository.Repository,
	cacheClient *cache.Cache,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	if origins := cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		r.Use(middleware.CORS(corsCfg))
	}

	// Public endpoints
	r.Get("/", h.Hello)
	r.Get("/health", healthHandler.Healthz)
	r.Get("/ready", healthHandler.Readyz)
	r.Get("/privacy", h.Privacy)
	r.Get("/metrics", metricsHandler.Metrics)

	// Registration and verification (unauthenticated, rate limited internally)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", accountHandler.Register)
		r.Post("/verify-email", accountHandler.VerifyEmail)
		r.Post("/resend-verification", accountHandler.ResendVerification)

		// Account lifecycle (authenticated)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(middleware.AuthConfig{
				Logger:  logger,
				Store:   repo,
				Cache:   cacheClient,
				Metrics: recorder,
			}))

			r.Patch("/account", accountHandler.Update)
			r.Delete("/account", accountHandler.Delete)
			r.Get("/account/data", accountHandler.ExportData)
		})
	})

	// Watch management (authenticated; mutation requires verified email)
	r.Route("/api/v1/watches", func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Logger:  logger,
			Store:   repo,
			Cache:   cacheClient,
			Metrics: recorder,
		}))

		r.Get("/", watchHandler.List)
		r.Get("/{id}", watchHandler.Get)
		r.With(middleware.RequireVerified()).Post("/", watchHandler.Create)
		r.With(middleware.RequireVerified()).Patch("/{id}", watchHandler.Update)
		r.With(middleware.RequireVerified()).Delete("/{id}", watchHandler.Delete)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

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
