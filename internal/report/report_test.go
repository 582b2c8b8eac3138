package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-analytics/internal/analysis"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCustomerSalesRanking(t *testing.T) {
	ranking := analysis.CustomerRanking{
		Entries: []analysis.CustomerSales{
			{CustomerID: 1, Sales: d("21")},
			{CustomerID: 2, Sales: d("5.5")},
		},
		ValidRows: 3,
	}

	rep := CustomerSalesRanking(ranking, 10, 4, "customer_sales_ranking_20240102_150405.png")

	assert.Equal(t, StatusSuccess, rep.Status)
	assert.Equal(t, UsecaseCustomerSales, rep.Usecase)
	assert.Equal(t, 10, rep.TopN)
	assert.Equal(t, "/output/customer_sales_ranking_20240102_150405.png", rep.GraphURL)
	assert.Equal(t, 4, rep.TotalRecords)
	assert.Equal(t, 3, rep.ValidRecords)
	assert.Equal(t, 2, rep.ValidCustomers)

	require.Len(t, rep.Ranking, 2)
	assert.Equal(t, 1, rep.Ranking[0].Rank)
	assert.Equal(t, int64(1), rep.Ranking[0].CustomerID)
	assert.InDelta(t, 21.0, rep.Ranking[0].Sales, 1e-9)
	assert.Equal(t, 2, rep.Ranking[1].Rank)
	assert.InDelta(t, 5.5, rep.Ranking[1].Sales, 1e-9)
}

func TestCustomerSalesRanking_EmptyEncodesArray(t *testing.T) {
	rep := CustomerSalesRanking(analysis.CustomerRanking{}, 0, 0, "x.png")

	body, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"ranking":[]`)
}

func TestPopularProductsRanking(t *testing.T) {
	ranking := analysis.ProductRanking{
		Entries: []analysis.ProductQuantity{
			{Description: "MUG", Quantity: d("12")},
			{Description: "JAR", Quantity: d("-3")},
		},
		ValidRows: 5,
	}

	rep := PopularProductsRanking(ranking, 5, 6, "p.png")

	assert.Equal(t, UsecasePopularProducts, rep.Usecase)
	assert.Equal(t, 2, rep.ValidProducts)
	assert.Equal(t, 5, rep.ValidRecords)
	require.Len(t, rep.Ranking, 2)
	assert.Equal(t, "MUG", rep.Ranking[0].ProductName)
	assert.InDelta(t, -3.0, rep.Ranking[1].Quantity, 1e-9)
}

func TestHourlySalesTrend(t *testing.T) {
	var trend analysis.HourlyTrend
	for h := range trend.Hours {
		trend.Hours[h].Hour = h
	}
	trend.Hours[14].Sales = d("100.25")
	trend.Peak = trend.Hours[14]
	trend.Lowest = trend.Hours[0]
	trend.ValidRows = 1

	rep := HourlySalesTrend(trend, 2, "h.png")

	require.Len(t, rep.Data, analysis.HoursPerDay)
	for h, item := range rep.Data {
		assert.Equal(t, h, item.Hour)
	}
	assert.Equal(t, 14, rep.PeakHour)
	assert.InDelta(t, 100.25, rep.PeakSales, 1e-9)
	assert.Equal(t, 0, rep.LowestHour)
	assert.Zero(t, rep.LowestSales)
	assert.Equal(t, "/output/h.png", rep.GraphURL)
}

func TestConsole_Money(t *testing.T) {
	tests := []struct {
		currency string
		amount   float64
		want     string
	}{
		{"GBP", 5391.21, "£5,391.21"},
		{"gbp", 0, "£0.00"},
		{"USD", 1234567.5, "$1,234,567.50"},
		{"XYZ", 12.5, "12.50 XYZ"},
	}

	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			assert.Equal(t, tt.want, NewConsole(nil, tt.currency).Money(tt.amount))
		})
	}
}

func TestConsole_CustomerSalesRanking(t *testing.T) {
	var buf bytes.Buffer
	rep := CustomerSalesRanking(analysis.CustomerRanking{
		Entries: []analysis.CustomerSales{{CustomerID: 17850, Sales: d("5391.21")}},
	}, 10, 1, "c.png")

	NewConsole(&buf, "GBP").CustomerSalesRanking(rep)

	out := buf.String()
	assert.Contains(t, out, strings.Repeat("=", 50))
	assert.Contains(t, out, "Customer Sales Ranking Top 10")
	assert.Contains(t, out, "Rank  1 | Customer ID:  17850 | Sales: £5,391.21")
}

func TestConsole_PopularAndHourly(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "GBP")

	c.PopularProductsRanking(PopularProductsRanking(analysis.ProductRanking{
		Entries: []analysis.ProductQuantity{{Description: "MUG", Quantity: d("12")}},
	}, 3, 1, "p.png"))

	var trend analysis.HourlyTrend
	for h := range trend.Hours {
		trend.Hours[h].Hour = h
	}
	trend.Hours[9].Sales = d("7")
	trend.Peak = trend.Hours[9]
	trend.Lowest = trend.Hours[0]
	c.HourlySalesTrend(HourlySalesTrend(trend, 1, "h.png"))

	out := buf.String()
	assert.Contains(t, out, "Popular Products Ranking Top 3")
	assert.Contains(t, out, "| MUG")
	assert.Contains(t, out, "09:00 | Sales: £7.00")
	assert.Contains(t, out, "Peak   09:00 | £7.00")
	assert.Contains(t, out, "Lowest 00:00 | £0.00")
}

func TestConsole_NilWriterPrintsNothing(t *testing.T) {
	var c *Console
	assert.NotPanics(t, func() {
		c.CustomerSalesRanking(CustomerSalesRanking(analysis.CustomerRanking{}, 1, 0, "x.png"))
		NewConsole(nil, "GBP").HourlySalesTrend(HourlySalesTrend(analysis.HourlyTrend{}, 0, "x.png"))
	})
}
