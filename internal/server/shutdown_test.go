package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"adopt-dashboard/internal/config"
)

func newTestGracefulServer() *GracefulServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	return NewGracefulServer(srv, logger, config.ServerConfig{ShutdownTimeout: time.Second})
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	gs := newTestGracefulServer()

	var ran atomic.Int32
	gs.OnShutdown("sessions", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	gs.OnShutdown("cache", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})

	if err := gs.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if ran.Load() != 2 {
		t.Errorf("hooks run = %d, want 2", ran.Load())
	}
}

func TestGracefulServer_ShutdownJoinsHookErrors(t *testing.T) {
	gs := newTestGracefulServer()

	errFlush := errors.New("flush failed")
	var ran atomic.Bool
	gs.OnShutdown("broken", func(ctx context.Context) error { return errFlush })
	gs.OnShutdown("healthy", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	err := gs.Shutdown(context.Background())
	if !errors.Is(err, errFlush) {
		t.Errorf("Shutdown() error = %v, want %v", err, errFlush)
	}
	if !ran.Load() {
		t.Error("a failing hook should not stop the others")
	}
}

func TestGracefulServer_ServeStopsOnCancel(t *testing.T) {
	gs := newTestGracefulServer()

	var ran atomic.Bool
	gs.OnShutdown("sessions", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
	if !ran.Load() {
		t.Error("shutdown hooks should run when serving stops")
	}
}
