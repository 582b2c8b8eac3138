package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"retail-analytics/internal/charts"
	"retail-analytics/internal/config"
	"retail-analytics/internal/middleware"
	"retail-analytics/internal/observability"
	"retail-analytics/internal/report"
	"retail-analytics/internal/server"
	"retail-analytics/internal/services"
	"retail-analytics/internal/ui/templates"
)

const (
	version       = "1.0.0"
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

func dashboardHandler(cfg *config.Config) http.HandlerFunc {
	props := templates.DashboardProps{
		Title: "Online Retail Analytics",
		TopN:  cfg.Report.DefaultTopN,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(props).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// newReports wires the report pipeline from configuration. Console summaries
// go to console when enabled.
func newReports(cfg *config.Config, console io.Writer, logger *slog.Logger) *services.Reports {
	if !cfg.Report.ConsoleSummary {
		console = nil
	}
	renderer := charts.NewRenderer(cfg.Report.OutputDir,
		charts.WithSize(cfg.Report.ChartWidth, cfg.Report.ChartHeight),
	)
	return services.NewReports(cfg.Data.File, renderer, report.NewConsole(console, cfg.Report.Currency), logger)
}

func newHandler(cfg *config.Config, reports *services.Reports, logger *slog.Logger) (http.Handler, error) {
	srv := server.NewServer(reports, cfg.Report, logger, &server.TemplateHandlers{
		Dashboard: dashboardHandler(cfg),
	})

	compression, err := middleware.Compression()
	if err != nil {
		return nil, err
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		compression,
	)

	return middlewareChain(srv), nil
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
		"version", version,
		"data_file", cfg.Data.File,
		"output_dir", cfg.Report.OutputDir,
	)

	if _, err := os.Stat(cfg.Data.File); err != nil {
		logger.Warn("data file not available, reports will fail until it exists", "path", cfg.Data.File, "error", err)
	}

	reports := newReports(cfg, os.Stdout, logger)

	handler, err := newHandler(cfg, reports, logger)
	if err != nil {
		logger.Error("failed to build handler", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down report service")
		return nil
	})

	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
