package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"adopt-dashboard/internal/config"
	"adopt-dashboard/internal/middleware"
	"adopt-dashboard/internal/observability"
	"adopt-dashboard/internal/server"
	"adopt-dashboard/internal/session"
	"adopt-dashboard/internal/store"
	"adopt-dashboard/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 30 * time.Second
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	dataset := store.NewDataset(cfg.Dataset.CSVFile, cfg.Dataset.CacheDir, logger)
	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	defer cancel()

	start := time.Now()
	snap, err := dataset.Load(ctx)
	if err != nil {
		logger.Error("dataset unavailable", "error", err)
		os.Exit(1)
	}
	observability.RecordDataset(snap.Store.Len(), snap.Store.Dropped(), snap.Generation)
	logger.Info("dataset loaded successfully",
		"records", snap.Store.Len(),
		"duration", time.Since(start),
	)

	registry := session.NewRegistry(dataset, session.Options{
		MaxSessions: cfg.Session.MaxSessions,
		IdleTTL:     cfg.Session.IdleTTL,
	}, logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	srv, err := server.NewServer(registry, logger, templateHandlers, server.Options{
		Session:        cfg.Session,
		MetricsEnabled: cfg.Metrics.Enabled,
	})
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.OnShutdown("sessions", func(ctx context.Context) error {
		logger.Info("sessions closed", "sessions", registry.Purge())
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
