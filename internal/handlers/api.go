package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"retail-analytics/internal/errors"
	"retail-analytics/internal/observability"
	"retail-analytics/internal/services"
)

const (
	apiName    = "Online Retail Analytics API"
	apiVersion = "1.0.0"
)

// Every report is recomputed from the data file, so responses must not be
// served from a cache.
var noStore = map[string]string{
	"Cache-Control": "no-store",
}

type APIHandlers struct {
	reports     *services.Reports
	defaultTopN int
	logger      *slog.Logger
}

func NewAPIHandlers(reports *services.Reports, defaultTopN int, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		reports:     reports,
		defaultTopN: defaultTopN,
		logger:      logger,
	}
}

func (h *APIHandlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	errors.WriteJSON(w, map[string]string{
		"message": apiName,
		"version": apiVersion,
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteJSON(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   apiVersion,
	})
}

func (h *APIHandlers) HandleCustomerSalesRanking(w http.ResponseWriter, r *http.Request) {
	topN, err := parseTopN(r, h.defaultTopN)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rep, err := h.reports.CustomerSalesRanking(r.Context(), topN)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteJSONWithHeaders(w, rep, noStore)
}

func (h *APIHandlers) HandlePopularProductsRanking(w http.ResponseWriter, r *http.Request) {
	topN, err := parseTopN(r, h.defaultTopN)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rep, err := h.reports.PopularProductsRanking(r.Context(), topN)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteJSONWithHeaders(w, rep, noStore)
}

func (h *APIHandlers) HandleHourlySalesTrend(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reports.HourlySalesTrend(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteJSONWithHeaders(w, rep, noStore)
}

func (h *APIHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	files, err := h.reports.Charts()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccess(w, files)
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

// parseTopN reads the optional top_n query parameter. Zero and negative
// values are accepted and produce an empty ranking.
func parseTopN(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("top_n")
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		appErr := errors.ValidationWrap(err, "top_n must be an integer")
		appErr.Details = "got " + strconv.Quote(raw)
		return 0, appErr
	}
	return n, nil
}
