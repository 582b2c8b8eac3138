package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"retail-analytics/internal/errors"
	"retail-analytics/internal/models"
	"retail-analytics/internal/report"
	"retail-analytics/internal/services"
)

const (
	customersTarget = "customers-content"
	productsTarget  = "products-content"
	hourlyTarget    = "hourly-content"
)

var funcs = template.FuncMap{
	"money": report.FormatMoney,
}

var customersTemplate = template.Must(template.New("customers").Funcs(funcs).Parse(`
<div id="customers-content">
<table class="modern-table">
<thead><tr><th>Rank</th><th>Customer ID</th><th>Sales</th></tr></thead>
<tbody>
{{range .Report.Ranking}}<tr>
<td>{{.Rank}}</td>
<td>{{.CustomerID}}</td>
<td><strong>{{money .Sales $.Currency}}</strong></td>
</tr>{{end}}
</tbody>
</table>
<img class="chart" src="{{.Report.GraphURL}}" alt="Customer sales ranking chart">
</div>`))

var productsTemplate = template.Must(template.New("products").Parse(`
<div id="products-content">
<table class="modern-table">
<thead><tr><th>Rank</th><th>Product</th><th>Quantity</th></tr></thead>
<tbody>
{{range .Report.Ranking}}<tr>
<td>{{.Rank}}</td>
<td>{{.ProductName}}</td>
<td><strong>{{.Quantity}}</strong></td>
</tr>{{end}}
</tbody>
</table>
<img class="chart" src="{{.Report.GraphURL}}" alt="Popular products ranking chart">
</div>`))

var hourlyTemplate = template.Must(template.New("hourly").Funcs(funcs).Parse(`
<div id="hourly-content">
<p class="summary">Peak {{printf "%02d:00" .Report.PeakHour}} ({{money .Report.PeakSales .Currency}}), lowest {{printf "%02d:00" .Report.LowestHour}} ({{money .Report.LowestSales .Currency}})</p>
<table class="modern-table">
<thead><tr><th>Hour</th><th>Sales</th></tr></thead>
<tbody>
{{range .Report.Data}}<tr>
<td>{{printf "%02d:00" .Hour}}</td>
<td>{{money .Sales $.Currency}}</td>
</tr>{{end}}
</tbody>
</table>
<img class="chart" src="{{.Report.GraphURL}}" alt="Hourly sales trend chart">
</div>`))

var errorTemplate = template.Must(template.New("error").Parse(
	`<div id="{{.Target}}" class="error">{{.Message}}</div>`))

type SSEHandlers struct {
	reports     *services.Reports
	defaultTopN int
	currency    string
	logger      *slog.Logger
}

func NewSSEHandlers(reports *services.Reports, defaultTopN int, currency string, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		reports:     reports,
		defaultTopN: defaultTopN,
		currency:    currency,
		logger:      logger,
	}
}

type templateData struct {
	Report   any
	Currency string
}

type reportStats struct {
	TotalRecords int    `json:"totalRecords"`
	ValidRecords int    `json:"validRecords"`
	GraphURL     string `json:"graphUrl"`
}

func (h *SSEHandlers) render(tmpl *template.Template, rep any) (string, error) {
	var buf strings.Builder
	err := tmpl.Execute(&buf, templateData{Report: rep, Currency: h.currency})
	return buf.String(), err
}

func (h *SSEHandlers) HandleCustomerSalesRanking(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	topN, err := parseTopN(r, h.defaultTopN)
	if err != nil {
		h.patchError(sse, customersTarget, err)
		return
	}

	rep, err := h.reports.CustomerSalesRanking(r.Context(), topN)
	if err != nil {
		h.patchError(sse, customersTarget, err)
		return
	}

	h.patchCustomers(sse, rep)
	flush(w)
}

func (h *SSEHandlers) HandlePopularProductsRanking(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	topN, err := parseTopN(r, h.defaultTopN)
	if err != nil {
		h.patchError(sse, productsTarget, err)
		return
	}

	rep, err := h.reports.PopularProductsRanking(r.Context(), topN)
	if err != nil {
		h.patchError(sse, productsTarget, err)
		return
	}

	h.patchProducts(sse, rep)
	flush(w)
}

func (h *SSEHandlers) HandleHourlySalesTrend(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	rep, err := h.reports.HourlySalesTrend(r.Context())
	if err != nil {
		h.patchError(sse, hourlyTarget, err)
		return
	}

	h.patchHourly(sse, rep)
	flush(w)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	topN, err := parseTopN(r, h.defaultTopN)
	if err != nil {
		h.patchError(sse, customersTarget, err)
		return
	}

	overview, err := h.reports.Overview(r.Context(), topN)
	if err != nil {
		for _, target := range []string{customersTarget, productsTarget, hourlyTarget} {
			h.patchError(sse, target, err)
		}
		return
	}

	h.patchCustomers(sse, overview.Customers)
	h.patchProducts(sse, overview.Products)
	h.patchHourly(sse, overview.Hourly)
	flush(w)
}

func (h *SSEHandlers) patchCustomers(sse *datastar.ServerSentEventGenerator, rep *models.CustomerSalesRankingReport) {
	h.patch(sse, customersTemplate, rep, "customers", reportStats{
		TotalRecords: rep.TotalRecords,
		ValidRecords: rep.ValidRecords,
		GraphURL:     rep.GraphURL,
	})
}

func (h *SSEHandlers) patchProducts(sse *datastar.ServerSentEventGenerator, rep *models.PopularProductsReport) {
	h.patch(sse, productsTemplate, rep, "products", reportStats{
		TotalRecords: rep.TotalRecords,
		ValidRecords: rep.ValidRecords,
		GraphURL:     rep.GraphURL,
	})
}

func (h *SSEHandlers) patchHourly(sse *datastar.ServerSentEventGenerator, rep *models.HourlySalesTrendReport) {
	h.patch(sse, hourlyTemplate, rep, "hourly", reportStats{
		TotalRecords: rep.TotalRecords,
		ValidRecords: rep.ValidRecords,
		GraphURL:     rep.GraphURL,
	})
}

func (h *SSEHandlers) patch(sse *datastar.ServerSentEventGenerator, tmpl *template.Template, rep any, signal string, stats reportStats) {
	html, err := h.render(tmpl, rep)
	if err != nil {
		h.logger.Error("render report", "template", tmpl.Name(), "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := json.Marshal(map[string]any{signal: stats})
	if err != nil {
		h.logger.Error("marshal report signals", "signal", signal, "error", err)
		return
	}
	sse.PatchSignals(signals)
}

// patchError replaces the target element with the error message. Unexpected
// errors are not shown to the browser.
func (h *SSEHandlers) patchError(sse *datastar.ServerSentEventGenerator, target string, err error) {
	message := errors.As(err).Message
	h.logger.Warn("sse report failed", "target", target, "error", err)

	var buf strings.Builder
	if execErr := errorTemplate.Execute(&buf, map[string]string{"Target": target, "Message": message}); execErr != nil {
		h.logger.Error("render error element", "error", execErr)
		return
	}
	sse.PatchElements(buf.String())
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
