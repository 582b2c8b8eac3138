package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"retail-analytics/internal/models"
)

const ruleWidth = 50

// Console prints report summaries as fixed-width text. A Console without a
// writer prints nothing, so callers never need to check before printing.
type Console struct {
	w        io.Writer
	currency string
}

func NewConsole(w io.Writer, currency string) *Console {
	return &Console{w: w, currency: strings.ToUpper(currency)}
}

func (c *Console) CustomerSalesRanking(rep *models.CustomerSalesRankingReport) {
	if !c.enabled() {
		return
	}

	var b strings.Builder
	c.header(&b, fmt.Sprintf("Customer Sales Ranking Top %d", rep.TopN))
	for _, item := range rep.Ranking {
		fmt.Fprintf(&b, "Rank %2d | Customer ID: %6d | Sales: %s\n", item.Rank, item.CustomerID, c.Money(item.Sales))
	}
	c.footer(&b)
	c.flush(b.String())
}

func (c *Console) PopularProductsRanking(rep *models.PopularProductsReport) {
	if !c.enabled() {
		return
	}

	var b strings.Builder
	c.header(&b, fmt.Sprintf("Popular Products Ranking Top %d", rep.TopN))
	for _, item := range rep.Ranking {
		fmt.Fprintf(&b, "Rank %2d | Quantity: %8s | %s\n", item.Rank, formatQuantity(item.Quantity), item.ProductName)
	}
	c.footer(&b)
	c.flush(b.String())
}

func (c *Console) HourlySalesTrend(rep *models.HourlySalesTrendReport) {
	if !c.enabled() {
		return
	}

	var b strings.Builder
	c.header(&b, "Hourly Sales Trend")
	for _, item := range rep.Data {
		fmt.Fprintf(&b, "%02d:00 | Sales: %s\n", item.Hour, c.Money(item.Sales))
	}
	b.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	fmt.Fprintf(&b, "Peak   %02d:00 | %s\n", rep.PeakHour, c.Money(rep.PeakSales))
	fmt.Fprintf(&b, "Lowest %02d:00 | %s\n", rep.LowestHour, c.Money(rep.LowestSales))
	c.footer(&b)
	c.flush(b.String())
}

func (c *Console) Money(amount float64) string {
	return FormatMoney(amount, c.currency)
}

// FormatMoney formats an amount in the given ISO currency, falling back to a
// plain two-decimal number with the code when the currency is unknown.
func FormatMoney(amount float64, currency string) string {
	currency = strings.ToUpper(currency)
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, currency)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func (c *Console) enabled() bool {
	return c != nil && c.w != nil
}

func (c *Console) header(b *strings.Builder, title string) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(b, "\n%s\n%s\n%s\n", rule, title, rule)
}

func (c *Console) footer(b *strings.Builder) {
	fmt.Fprintf(b, "%s\n\n", strings.Repeat("=", ruleWidth))
}

// flush writes the whole block at once so concurrent reports do not interleave
// line by line.
func (c *Console) flush(s string) {
	io.WriteString(c.w, s)
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
