// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Irongate IAM server.
//
// # Startup Sequence
//
//  1. Initialize structured logger (colorized console in development).
//  2. Load configuration from environment variables (IAM_ prefix).
//  3. Select the storage backend: in-memory, or PostgreSQL with migrations.
//  4. Optionally connect Redis for cross-instance replay tracking.
//  5. Wire the security gates and the IAM handler set.
//  6. Start the expired-session sweep job.
//  7. Start the HTTP(S) server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/taibuivan/irongate/internal/api"
	"github.com/taibuivan/irongate/internal/auth"
	"github.com/taibuivan/irongate/internal/iam"
	"github.com/taibuivan/irongate/internal/platform/config"
	"github.com/taibuivan/irongate/internal/platform/constants"
	"github.com/taibuivan/irongate/internal/platform/metrics"
	"github.com/taibuivan/irongate/internal/platform/migration"
	pgstore "github.com/taibuivan/irongate/internal/platform/postgres"
	redisstore "github.com/taibuivan/irongate/internal/platform/redis"
	"github.com/taibuivan/irongate/internal/sweeper"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Bootstrap with JSON at info level; reconfigure once config is loaded.
	log := newLogger(false, false)
	slog.SetDefault(log)

	log.Info("[Irongate] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	log = newLogger(cfg.IsDevelopment(), cfg.Debug)
	slog.SetDefault(log)

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("store", cfg.Store),
		slog.Duration("session_ttl", cfg.SessionTTL),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Storage Backend ────────────────────────────────────────────────
	var (
		store  iam.Store
		health api.HealthDependencies
	)

	switch cfg.Store {
	case config.StorePostgres:
		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing postgres pool")
			pool.Close()
		}()

		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		store = iam.NewPostgresStore(pool)
		health.CheckDatabase = func() error {
			return pgstore.Ping(context.Background(), pool)
		}

	default:
		store = iam.NewMemoryStore()
	}

	// ── 4. Replay Cache ───────────────────────────────────────────────────
	// Redis when configured (shared across instances), in-process otherwise.
	var replay auth.ReplayCache = auth.NewMemoryReplayCache()

	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()

		replay = auth.NewRedisReplayCache(rdb)
		health.CheckCache = func() error {
			return redisstore.Ping(context.Background(), rdb)
		}
	}

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	registry := metrics.NewRegistry()

	service := iam.NewService(store, cfg.SessionTTL, log)
	handler := iam.NewHandler(service)

	authenticator := auth.NewAuthenticator(store, cfg.Host, cfg.HeaderPrefix, replay)
	authorizer := auth.NewAuthorizer(store, cfg.Host)

	liveness, readiness := api.NewHealthHandlers(health, log)

	// ── 6. Session Sweep ──────────────────────────────────────────────────
	sweep, err := sweeper.New(service, log)
	must(log, err, "initialize session sweeper")
	sweep.Start()
	defer func() {
		if serr := sweep.Shutdown(); serr != nil {
			log.Error("sweeper shutdown error", slog.Any("error", serr))
		}
	}()

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		IAM:       handler,
		Security:  auth.Middleware(authenticator, authorizer, registry),
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, registry, handlers)

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the process logger: colorized console output for local
// development, JSON for everything else.
func newLogger(development, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if development {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
