package server

import (
	"log/slog"
	"net/http"
	"strings"

	"retail-analytics/internal/config"
	"retail-analytics/internal/handlers"
	"retail-analytics/internal/report"
	"retail-analytics/internal/services"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(reports *services.Reports, cfg config.ReportConfig, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(reports, cfg.DefaultTopN, logger),
		sseHandlers: handlers.NewSSEHandlers(reports, cfg.DefaultTopN, cfg.Currency, logger),
	}
	s.setupRoutes(templateHandlers, cfg.OutputDir)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, outputDir string) {
	s.mux.HandleFunc("GET /{$}", s.apiHandlers.HandleRoot)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /dashboard", templateHandlers.Dashboard)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/v1/analytics/customer-sales-ranking", s.apiHandlers.HandleCustomerSalesRanking)
	s.mux.HandleFunc("GET /api/v1/analytics/popular-products-ranking", s.apiHandlers.HandlePopularProductsRanking)
	s.mux.HandleFunc("GET /api/v1/analytics/hourly-sales-trend", s.apiHandlers.HandleHourlySalesTrend)
	s.mux.HandleFunc("GET /api/v1/analytics/charts", s.apiHandlers.HandleCharts)

	// Generated charts
	s.mux.Handle("GET "+report.OutputURLPrefix, staticFiles(report.OutputURLPrefix, outputDir))

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/customer-sales-ranking", s.sseHandlers.HandleCustomerSalesRanking)
	s.mux.HandleFunc("GET /sse/popular-products-ranking", s.sseHandlers.HandlePopularProductsRanking)
	s.mux.HandleFunc("GET /sse/hourly-sales-trend", s.sseHandlers.HandleHourlySalesTrend)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)

	s.logger.Debug("routes registered", "output_url", report.OutputURLPrefix, "output_dir", outputDir)
}

// staticFiles serves files from dir under prefix. Directory paths are not
// listed. The directory is read on every request, so charts written after
// startup are served too.
func staticFiles(prefix, dir string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == prefix || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=300")
		files.ServeHTTP(w, r)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
