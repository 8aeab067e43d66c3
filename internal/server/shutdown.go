package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"adopt-dashboard/internal/config"
)

const hookTimeout = 10 * time.Second

// ShutdownHook releases a resource once the server stops taking requests.
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   ShutdownHook
}

// GracefulServer serves until SIGINT or SIGTERM, then drains in-flight
// requests before running its hooks.
type GracefulServer struct {
	server *http.Server
	logger *slog.Logger
	cfg    config.ServerConfig

	mu    sync.Mutex
	hooks []namedHook
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, cfg config.ServerConfig) *GracefulServer {
	return &GracefulServer{
		server: server,
		logger: logger,
		cfg:    cfg,
	}
}

// OnShutdown registers fn to run after the HTTP server has stopped. Hooks
// run concurrently, each bounded by its own timeout.
func (gs *GracefulServer) OnShutdown(name string, fn ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, namedHook{name: name, fn: fn})
}

func (gs *GracefulServer) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return gs.serve(ctx)
}

// serve runs the listener until it fails or ctx is done.
func (gs *GracefulServer) serve(ctx context.Context) error {
	listenErr := make(chan error, 1)
	go func() {
		gs.logger.Info("listening",
			"addr", gs.server.Addr,
			"read_timeout", gs.cfg.ReadTimeout,
			"write_timeout", gs.cfg.WriteTimeout,
		)
		listenErr <- gs.server.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		gs.logger.Info("shutdown requested", "cause", context.Cause(ctx))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gs.cfg.ShutdownTimeout)
	defer cancel()
	return gs.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, waits for in-flight ones, then runs
// the hooks. Errors from the server and the hooks are joined.
func (gs *GracefulServer) Shutdown(ctx context.Context) error {
	start := time.Now()

	var errs []error
	if err := gs.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	gs.mu.Lock()
	hooks := slices.Clone(gs.hooks)
	gs.mu.Unlock()

	var (
		g      errgroup.Group
		hookMu sync.Mutex
	)
	for _, h := range hooks {
		g.Go(func() error {
			hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
			defer cancel()

			if err := h.fn(hookCtx); err != nil {
				gs.logger.Error("shutdown hook failed", "hook", h.name, "error", err)
				hookMu.Lock()
				errs = append(errs, fmt.Errorf("shutdown hook %s: %w", h.name, err))
				hookMu.Unlock()
				return nil
			}
			gs.logger.Debug("shutdown hook done", "hook", h.name)
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	gs.logger.Info("shutdown finished",
		"duration", time.Since(start),
		"hooks", len(hooks),
		"failed", err != nil,
	)
	return err
}
