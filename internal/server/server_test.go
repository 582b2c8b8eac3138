package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"retail-analytics/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hourly_sales_trend_20240102_150405.png"), []byte("\x89PNG"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /output/", staticFiles("/output/", dir))

	tests := []struct {
		path   string
		status int
	}{
		{"/output/hourly_sales_trend_20240102_150405.png", http.StatusOK},
		{"/output/missing.png", http.StatusNotFound},
		{"/output/", http.StatusNotFound},
		{"/output/nested/", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ShutdownTimeout = 5 * time.Second

	httpServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, discardLogger(), cfg)

	var called atomic.Int32
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		called.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- gs.ListenAndServe(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	if called.Load() != 1 {
		t.Errorf("shutdown hook called %d times, want 1", called.Load())
	}
}

func TestGracefulServer_HookErrorIsReturned(t *testing.T) {
	cfg := config.Default()
	gs := NewGracefulServer(&http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}, discardLogger(), cfg)
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		return errors.New("flush failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := gs.ListenAndServe(ctx)
	if err == nil || !strings.Contains(err.Error(), "flush failed") {
		t.Errorf("ListenAndServe() error = %v, want hook failure", err)
	}
}

func TestNewServer_RoutesChartDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "customer_sales_ranking_20240102_150405.png"), []byte("\x89PNG"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default().Report
	cfg.OutputDir = dir

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	srv := NewServer(nil, cfg, logger, &TemplateHandlers{Dashboard: http.NotFound})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/output/customer_sales_ranking_20240102_150405.png", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	if !strings.Contains(logs.String(), "routes registered") || !strings.Contains(logs.String(), dir) {
		t.Errorf("route registration not logged: %q", logs.String())
	}
}
