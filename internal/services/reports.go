package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"retail-analytics/internal/analysis"
	"retail-analytics/internal/charts"
	"retail-analytics/internal/dataset"
	"retail-analytics/internal/errors"
	"retail-analytics/internal/models"
	"retail-analytics/internal/observability"
	"retail-analytics/internal/report"
)

// Reports runs the load, aggregate, render and format pipeline. Nothing is
// cached between calls: every report reads the data file again.
type Reports struct {
	dataPath string
	charts   *charts.Renderer
	console  *report.Console
	logger   *slog.Logger
}

func NewReports(dataPath string, renderer *charts.Renderer, console *report.Console, logger *slog.Logger) *Reports {
	return &Reports{
		dataPath: dataPath,
		charts:   renderer,
		console:  console,
		logger:   logger,
	}
}

func (s *Reports) CustomerSalesRanking(ctx context.Context, topN int) (*models.CustomerSalesRankingReport, error) {
	ctx = context.WithoutCancel(ctx)

	table, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	rep, err := s.customerSales(ctx, table, topN)
	if err != nil {
		return nil, err
	}

	s.console.CustomerSalesRanking(rep)
	return rep, nil
}

func (s *Reports) PopularProductsRanking(ctx context.Context, topN int) (*models.PopularProductsReport, error) {
	ctx = context.WithoutCancel(ctx)

	table, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	rep, err := s.popularProducts(ctx, table, topN)
	if err != nil {
		return nil, err
	}

	s.console.PopularProductsRanking(rep)
	return rep, nil
}

func (s *Reports) HourlySalesTrend(ctx context.Context) (*models.HourlySalesTrendReport, error) {
	ctx = context.WithoutCancel(ctx)

	table, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	rep, err := s.hourlySales(ctx, table)
	if err != nil {
		return nil, err
	}

	s.console.HourlySalesTrend(rep)
	return rep, nil
}

// Overview loads the data once and builds all three reports concurrently.
// Console summaries are printed after every report succeeded, always in the
// same order.
func (s *Reports) Overview(ctx context.Context, topN int) (*models.Overview, error) {
	ctx = context.WithoutCancel(ctx)

	table, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var overview models.Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rep, err := s.customerSales(gctx, table, topN)
		overview.Customers = rep
		return err
	})
	g.Go(func() error {
		rep, err := s.popularProducts(gctx, table, topN)
		overview.Products = rep
		return err
	})
	g.Go(func() error {
		rep, err := s.hourlySales(gctx, table)
		overview.Hourly = rep
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.console.CustomerSalesRanking(overview.Customers)
	s.console.PopularProductsRanking(overview.Products)
	s.console.HourlySalesTrend(overview.Hourly)
	return &overview, nil
}

// Charts lists the chart files already present in the output directory.
func (s *Reports) Charts() ([]models.ChartFile, error) {
	files, err := s.charts.List()
	if err != nil {
		return nil, err
	}

	out := make([]models.ChartFile, 0, len(files))
	for _, f := range files {
		out = append(out, models.ChartFile{
			Filename:  f.Name,
			Kind:      string(f.Kind),
			URL:       report.GraphURL(f.Name),
			CreatedAt: f.CreatedAt,
			SizeBytes: f.Size,
		})
	}
	return out, nil
}

func (s *Reports) load(ctx context.Context) (*dataset.Table, error) {
	ctx, span := observability.StartSpan(ctx, "dataset.load")
	defer s.finish(ctx, span)

	start := time.Now()
	table, err := dataset.Load(ctx, s.dataPath)
	if err != nil {
		span.SetError(err)
		return nil, s.mapLoadError(err)
	}

	span.SetTag("rows", strconv.Itoa(table.Len()))
	s.logger.InfoContext(ctx, "data loaded",
		"path", table.Path,
		"rows", table.Len(),
		"duration", time.Since(start),
	)
	return table, nil
}

func (s *Reports) mapLoadError(err error) error {
	var loadErr *dataset.LoadError
	switch {
	case stderrors.Is(err, dataset.ErrNotFound):
		return errors.NotFound(fmt.Sprintf("Data file not found: %s", s.dataPath))
	case stderrors.As(err, &loadErr):
		return errors.DataLoad(loadErr.Err, "Data load error")
	default:
		return err
	}
}

func (s *Reports) customerSales(ctx context.Context, table *dataset.Table, topN int) (*models.CustomerSalesRankingReport, error) {
	ctx, span := observability.StartSpan(ctx, "report.customer_sales_ranking")
	defer s.finish(ctx, span)

	ranking := analysis.CustomerSalesRanking(table.Rows, topN)

	bars := make([]charts.Bar, 0, len(ranking.Entries))
	for _, e := range ranking.Entries {
		bars = append(bars, charts.Bar{
			Label: fmt.Sprintf("ID: %d", e.CustomerID),
			Value: e.Sales.InexactFloat64(),
		})
	}

	file, err := s.render(ctx, span, charts.KindCustomerSales, func() (string, error) {
		return s.charts.RenderBar(charts.KindCustomerSales, charts.BarChart{
			Title:  fmt.Sprintf("Customer Sales Ranking Top %d", topN),
			YLabel: "Sales",
			Bars:   bars,
		})
	})
	if err != nil {
		return nil, err
	}

	return report.CustomerSalesRanking(ranking, topN, table.Len(), file), nil
}

func (s *Reports) popularProducts(ctx context.Context, table *dataset.Table, topN int) (*models.PopularProductsReport, error) {
	ctx, span := observability.StartSpan(ctx, "report.popular_products_ranking")
	defer s.finish(ctx, span)

	ranking := analysis.PopularProductsRanking(table.Rows, topN)

	bars := make([]charts.Bar, 0, len(ranking.Entries))
	for _, e := range ranking.Entries {
		bars = append(bars, charts.Bar{
			Label: charts.TruncateLabel(e.Description),
			Value: e.Quantity.InexactFloat64(),
		})
	}

	file, err := s.render(ctx, span, charts.KindPopularProducts, func() (string, error) {
		return s.charts.RenderBar(charts.KindPopularProducts, charts.BarChart{
			Title:  fmt.Sprintf("Popular Products Ranking Top %d", topN),
			YLabel: "Quantity",
			Bars:   bars,
		})
	})
	if err != nil {
		return nil, err
	}

	return report.PopularProductsRanking(ranking, topN, table.Len(), file), nil
}

func (s *Reports) hourlySales(ctx context.Context, table *dataset.Table) (*models.HourlySalesTrendReport, error) {
	ctx, span := observability.StartSpan(ctx, "report.hourly_sales_trend")
	defer s.finish(ctx, span)

	trend := analysis.HourlySalesTrend(table.Rows)

	points := make([]charts.Point, 0, len(trend.Hours))
	for _, h := range trend.Hours {
		points = append(points, charts.Point{
			X:     float64(h.Hour),
			Label: fmt.Sprintf("%d:00", h.Hour),
			Y:     h.Sales.InexactFloat64(),
		})
	}

	file, err := s.render(ctx, span, charts.KindHourlySales, func() (string, error) {
		return s.charts.RenderLine(charts.KindHourlySales, charts.LineChart{
			Title:  "Hourly Sales Trend",
			XLabel: "Hour",
			YLabel: "Sales",
			Points: points,
		})
	})
	if err != nil {
		return nil, err
	}

	return report.HourlySalesTrend(trend, table.Len(), file), nil
}

func (s *Reports) render(ctx context.Context, span *observability.Span, kind charts.Kind, draw func() (string, error)) (string, error) {
	file, err := draw()
	if err != nil {
		span.SetError(err)
		return "", fmt.Errorf("%s chart: %w", kind, err)
	}

	span.SetTag("chart", file)
	s.logger.InfoContext(ctx, "chart written", "kind", kind, "file", file, "dir", s.charts.Dir())
	return file, nil
}

func (s *Reports) finish(ctx context.Context, span *observability.Span) {
	span.Finish()
	s.logger.DebugContext(ctx, "span finished", "span", span)
}
