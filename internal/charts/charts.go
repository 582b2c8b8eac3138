// Package charts renders report results as PNG files in a flat output
// directory. Files are named {kind}_{YYYYMMDD_HHMMSS}.png and are never
// rewritten or removed by this package; two renders of the same kind within
// one second share a name and the later one wins.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type Kind string

const (
	KindCustomerSales   Kind = "customer_sales_ranking"
	KindPopularProducts Kind = "popular_products_ranking"
	KindHourlySales     Kind = "hourly_sales_trend"
)

const (
	timestampLayout = "20060102_150405"
	maxLabelRunes   = 20
	ellipsis        = "..."

	defaultWidth  = 1200
	defaultHeight = 600
)

var (
	seriesColor = drawing.ColorFromHex("4682b4")
	padding     = chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}
)

type Bar struct {
	Label string
	Value float64
}

type BarChart struct {
	Title  string
	YLabel string
	Bars   []Bar
}

type Point struct {
	X     float64
	Label string
	Y     float64
}

type LineChart struct {
	Title  string
	XLabel string
	YLabel string
	Points []Point
}

type Renderer struct {
	dir    string
	width  int
	height int
	now    func() time.Time
}

type Option func(*Renderer)

func WithSize(width, height int) Option {
	return func(r *Renderer) {
		r.width = width
		r.height = height
	}
}

// WithClock replaces time.Now for filename timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

func NewRenderer(dir string, opts ...Option) *Renderer {
	r := &Renderer{
		dir:    dir,
		width:  defaultWidth,
		height: defaultHeight,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) Dir() string {
	return r.dir
}

// Filename returns the name a chart of kind rendered at t is stored under.
func Filename(kind Kind, t time.Time) string {
	return fmt.Sprintf("%s_%s.png", kind, t.Format(timestampLayout))
}

// TruncateLabel shortens s to maxLabelRunes runes followed by an ellipsis.
func TruncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= maxLabelRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLabelRunes]) + ellipsis
}

// RenderBar draws one bar per entry and returns the written filename. An empty
// chart still produces an image with a single empty placeholder bar.
func (r *Renderer) RenderBar(kind Kind, c BarChart) (string, error) {
	bars := make([]chart.Value, 0, len(c.Bars))
	values := make([]float64, 0, len(c.Bars))
	for _, b := range c.Bars {
		bars = append(bars, chart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: chart.Style{FillColor: seriesColor, StrokeColor: seriesColor},
		})
		values = append(values, b.Value)
	}
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Label: "no data"})
	}

	graph := chart.BarChart{
		Title:        c.Title,
		Width:        r.width,
		Height:       r.height,
		Background:   chart.Style{Padding: padding},
		XAxis:        chart.Style{TextRotationDegrees: 45},
		YAxis:        chart.YAxis{Name: c.YLabel, Range: valueRange(values)},
		BarWidth:     60,
		BarSpacing:   30,
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
	}

	return r.write(kind, func(w io.Writer) error {
		return graph.Render(chart.PNG, w)
	})
}

// RenderLine draws the points joined by a line with the area below it shaded.
func (r *Renderer) RenderLine(kind Kind, c LineChart) (string, error) {
	if len(c.Points) < 2 {
		return "", errors.New("line chart needs at least two points")
	}

	xs := make([]float64, 0, len(c.Points))
	ys := make([]float64, 0, len(c.Points))
	ticks := make([]chart.Tick, 0, len(c.Points))
	for _, p := range c.Points {
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
		ticks = append(ticks, chart.Tick{Value: p.X, Label: p.Label})
	}

	graph := chart.Chart{
		Title:      c.Title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: padding},
		XAxis: chart.XAxis{
			Name:  c.XLabel,
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
		},
		YAxis: chart.YAxis{
			Name:  c.YLabel,
			Range: valueRange(ys),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    c.Title,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: seriesColor,
					StrokeWidth: 2,
					FillColor:   seriesColor.WithAlpha(64),
					DotColor:    seriesColor,
					DotWidth:    3,
				},
			},
		},
	}

	return r.write(kind, func(w io.Writer) error {
		return graph.Render(chart.PNG, w)
	})
}

func (r *Renderer) write(kind Kind, render func(io.Writer) error) (string, error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return "", fmt.Errorf("render %s chart: %w", kind, err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	filename := Filename(kind, r.now())
	if err := os.WriteFile(filepath.Join(r.dir, filename), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	return filename, nil
}

// valueRange spans the values and zero, never collapsing to a single point.
func valueRange(values []float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		return &chart.ContinuousRange{Min: lo, Max: lo + 1}
	}

	pad := (hi - lo) * 0.05
	if lo < 0 {
		lo -= pad
	}
	if hi > 0 {
		hi += pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
