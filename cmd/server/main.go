// Package main is the entrypoint for the ClientPulse API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwhitfield/clientpulse/internal/api"
	"github.com/mwhitfield/clientpulse/internal/api/handler"
	mw "github.com/mwhitfield/clientpulse/internal/api/middleware"
	"github.com/mwhitfield/clientpulse/internal/api/response"
	"github.com/mwhitfield/clientpulse/internal/cache"
	"github.com/mwhitfield/clientpulse/internal/collector"
	"github.com/mwhitfield/clientpulse/internal/config"
	"github.com/mwhitfield/clientpulse/internal/ingest"
	"github.com/mwhitfield/clientpulse/internal/query"
	"github.com/mwhitfield/clientpulse/internal/registry"
	"github.com/mwhitfield/clientpulse/internal/rollup"
	"github.com/mwhitfield/clientpulse/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, failing fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "collector_enabled", cfg.Collector.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Build services
	pgStore := store.NewPostgresStore(pool)
	reg := registry.New(pgStore)
	ingestSvc := ingest.New(pgStore)
	querySvc := query.New(pgStore, redisCache)
	engine := rollup.NewEngine(pgStore, cfg.Rollup.TopN)

	// 6. Background workers
	go engine.Start(ctx, cfg.Rollup.Interval)
	slog.Info("rollup scheduler started", "interval", cfg.Rollup.Interval)

	if cfg.Collector.Enabled {
		go collector.New(pgStore, cfg.Collector).Start(ctx)
		slog.Info("snapshot collector started", "interval", cfg.Collector.Interval)
	}

	// 7. Build router with dependencies
	auth := mw.NewAuth(pgStore)
	rateLimit := mw.NewRateLimit(redisCache, 120)

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		HealthHandler: healthHandler(pgStore, redisCache),
		LoginHandler:  handler.NewLoginHandler(reg),

		RecordEventHandler:    handler.NewRecordEventHandler(ingestSvc),
		LeadWebhookHandler:    handler.NewLeadWebhookHandler(ingestSvc),
		BillingWebhookHandler: handler.NewBillingWebhookHandler(reg),

		StatsHandler:       handler.NewStatsHandler(querySvc),
		ExportStatsHandler: handler.NewExportStatsHandler(querySvc),
		ActivityHandler:    handler.NewActivityHandler(querySvc),
		ListLeadsHandler:   handler.NewListLeadsHandler(querySvc),
		SnapshotHandler:    handler.NewSnapshotHandler(querySvc),

		ListBrandFilesHandler:  handler.NewListBrandFilesHandler(querySvc),
		CreateBrandFileHandler: handler.NewCreateBrandFileHandler(pgStore),

		CreateTenantHandler: handler.NewCreateTenantHandler(reg),
		DeleteTenantHandler: handler.NewDeleteTenantHandler(reg),
		RunRollupHandler:    handler.NewRunRollupHandler(engine),
		CreateKeyHandler:    handler.NewCreateKeyHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
