package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"retail-analytics/internal/config"
)

const hookTimeout = 10 * time.Second

// ShutdownHook releases a resource once the HTTP server has stopped taking
// requests.
type ShutdownHook func(ctx context.Context) error

// GracefulServer runs an http.Server until the process is told to stop, then
// drains in-flight requests before running the registered hooks.
type GracefulServer struct {
	server  *http.Server
	logger  *slog.Logger
	timeout time.Duration

	mu    sync.Mutex
	hooks []ShutdownHook
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, cfg *config.Config) *GracefulServer {
	return &GracefulServer{
		server:  server,
		logger:  logger,
		timeout: cfg.Server.ShutdownTimeout,
	}
}

func (gs *GracefulServer) RegisterShutdownHook(hook ShutdownHook) {
	gs.mu.Lock()
	gs.hooks = append(gs.hooks, hook)
	gs.mu.Unlock()
}

// ListenAndServe blocks until the server fails, ctx is done, or the process
// receives SIGINT or SIGTERM. The last two trigger a graceful shutdown.
func (gs *GracefulServer) ListenAndServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		gs.logger.Info("listening",
			"addr", gs.server.Addr,
			"read_timeout", gs.server.ReadTimeout,
			"write_timeout", gs.server.WriteTimeout,
		)
		serveErr <- gs.server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", gs.server.Addr, err)
	case <-ctx.Done():
	}

	gs.logger.Info("shutting down", "cause", context.Cause(ctx), "timeout", gs.timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gs.timeout)
	defer cancel()

	if err := gs.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("drain http server: %w", err)
	}
	if err := gs.runHooks(shutdownCtx); err != nil {
		return err
	}
	gs.logger.Info("shutdown complete")
	return nil
}

// runHooks runs every hook concurrently, each bounded by hookTimeout, and
// returns the first failure.
func (gs *GracefulServer) runHooks(ctx context.Context) error {
	gs.mu.Lock()
	hooks := gs.hooks
	gs.hooks = nil
	gs.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for i, hook := range hooks {
		g.Go(func() error {
			hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
			defer cancel()

			if err := hook(hookCtx); err != nil {
				gs.logger.Error("shutdown hook failed", "hook", i, "error", err)
				return fmt.Errorf("shutdown hook %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
