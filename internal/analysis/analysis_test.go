package analysis

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-analytics/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sale(customer int64, price, qty string) models.Transaction {
	return models.Transaction{
		CustomerID: optional.Some(customer),
		UnitPrice:  dec(price),
		Quantity:   dec(qty),
	}
}

func product(desc, qty string) models.Transaction {
	return models.Transaction{
		Description: desc,
		UnitPrice:   dec("1"),
		Quantity:    dec(qty),
	}
}

func at(hour int, price, qty string) models.Transaction {
	return models.Transaction{
		InvoiceDate: optional.Some(time.Date(2010, 12, 1, hour, 30, 0, 0, time.UTC)),
		UnitPrice:   dec(price),
		Quantity:    dec(qty),
	}
}

type customerRow struct {
	ID    int64
	Sales string
}

func customerRows(r CustomerRanking) []customerRow {
	out := make([]customerRow, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, customerRow{ID: e.CustomerID, Sales: e.Sales.String()})
	}
	return out
}

func TestCustomerSalesRanking_Scenario(t *testing.T) {
	rows := []models.Transaction{
		sale(1, "10", "2"),
		sale(2, "5", "1"),
		sale(1, "1", "1"),
	}

	got := CustomerSalesRanking(rows, 2)

	want := []customerRow{{ID: 1, Sales: "21"}, {ID: 2, Sales: "5"}}
	if diff := cmp.Diff(want, customerRows(got)); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, got.ValidRows)
}

func TestCustomerSalesRanking_ExcludesMissingCustomer(t *testing.T) {
	rows := []models.Transaction{
		sale(7, "2", "3"),
		{UnitPrice: dec("1000"), Quantity: dec("1")},
	}

	got := CustomerSalesRanking(rows, 10)

	require.Len(t, got.Entries, 1)
	assert.Equal(t, int64(7), got.Entries[0].CustomerID)
	assert.Equal(t, 1, got.ValidRows)
}

func TestCustomerSalesRanking_AllCustomersMissing(t *testing.T) {
	rows := []models.Transaction{
		{UnitPrice: dec("3"), Quantity: dec("1")},
		{UnitPrice: dec("4"), Quantity: dec("2")},
	}

	got := CustomerSalesRanking(rows, 10)

	assert.Empty(t, got.Entries)
	assert.Zero(t, got.ValidRows)
}

func TestCustomerSalesRanking_TopN(t *testing.T) {
	rows := []models.Transaction{
		sale(1, "1", "1"),
		sale(2, "2", "1"),
		sale(3, "3", "1"),
		sale(4, "4", "1"),
	}

	tests := []struct {
		topN int
		want []int64
	}{
		{topN: -3, want: nil},
		{topN: 0, want: nil},
		{topN: 1, want: []int64{4}},
		{topN: 3, want: []int64{4, 3, 2}},
		{topN: 50, want: []int64{4, 3, 2, 1}},
	}

	for _, tt := range tests {
		got := CustomerSalesRanking(rows, tt.topN)

		var ids []int64
		for _, e := range got.Entries {
			ids = append(ids, e.CustomerID)
		}
		assert.Equal(t, tt.want, ids, "topN=%d", tt.topN)
		assert.LessOrEqual(t, len(got.Entries), max(tt.topN, 0))
	}
}

func TestCustomerSalesRanking_TiesKeepInputOrder(t *testing.T) {
	rows := []models.Transaction{
		sale(30, "5", "1"),
		sale(10, "9", "1"),
		sale(20, "5", "1"),
		sale(40, "5", "1"),
	}

	got := CustomerSalesRanking(rows, 10)

	want := []customerRow{{10, "9"}, {30, "5"}, {20, "5"}, {40, "5"}}
	if diff := cmp.Diff(want, customerRows(got)); diff != "" {
		t.Errorf("tie order mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomerSalesRanking_NegativeSales(t *testing.T) {
	rows := []models.Transaction{
		sale(1, "2.50", "4"),
		sale(1, "2.50", "-4"),
		sale(2, "1", "1"),
	}

	got := CustomerSalesRanking(rows, 5)

	require.Len(t, got.Entries, 2)
	assert.Equal(t, int64(2), got.Entries[0].CustomerID)
	assert.True(t, got.Entries[1].Sales.IsZero())
}

func TestCustomerSalesRanking_Idempotent(t *testing.T) {
	rows := []models.Transaction{
		sale(5, "1.10", "3"),
		sale(6, "0.55", "7"),
		sale(5, "2.00", "1"),
	}

	first := CustomerSalesRanking(rows, 10)
	second := CustomerSalesRanking(rows, 10)

	assert.Equal(t, customerRows(first), customerRows(second))
}

func TestPopularProductsRanking(t *testing.T) {
	rows := []models.Transaction{
		product("JUMBO BAG RED RETROSPOT", "10"),
		product("", "500"),
		product("PARTY BUNTING", "4"),
		product("JUMBO BAG RED RETROSPOT", "5"),
		product("WHITE HANGING HEART", "12"),
	}

	got := PopularProductsRanking(rows, 2)

	require.Len(t, got.Entries, 2)
	assert.Equal(t, "JUMBO BAG RED RETROSPOT", got.Entries[0].Description)
	assert.True(t, got.Entries[0].Quantity.Equal(dec("15")))
	assert.Equal(t, "WHITE HANGING HEART", got.Entries[1].Description)
	assert.Equal(t, 4, got.ValidRows, "rows with empty description are excluded")
}

func TestPopularProductsRanking_ReturnsReduceTotals(t *testing.T) {
	rows := []models.Transaction{
		product("MUG", "3"),
		product("PAPER CRAFT LITTLE BIRDIE", "80995"),
		product("PAPER CRAFT LITTLE BIRDIE", "-80995"),
		product("MEDIUM CERAMIC STORAGE JAR", "-12"),
	}

	got := PopularProductsRanking(rows, 10)

	require.Len(t, got.Entries, 3)
	assert.Equal(t, "MUG", got.Entries[0].Description)
	assert.Equal(t, "PAPER CRAFT LITTLE BIRDIE", got.Entries[1].Description)
	assert.True(t, got.Entries[1].Quantity.IsZero())
	assert.True(t, got.Entries[2].Quantity.Equal(dec("-12")))
}

func TestPopularProductsRanking_DescriptionsAreExact(t *testing.T) {
	rows := []models.Transaction{
		product("WHITE HEART ", "5"),
		product("WHITE HEART", "3"),
		product(" ", "1"),
		product("", "9"),
	}

	got := PopularProductsRanking(rows, 10)

	want := []ProductQuantity{
		{Description: "WHITE HEART ", Quantity: dec("5")},
		{Description: "WHITE HEART", Quantity: dec("3")},
		{Description: " ", Quantity: dec("1")},
	}
	require.Len(t, got.Entries, len(want))
	for i, w := range want {
		assert.Equal(t, w.Description, got.Entries[i].Description)
		assert.True(t, w.Quantity.Equal(got.Entries[i].Quantity), "entry %d quantity = %s", i, got.Entries[i].Quantity)
	}
	assert.Equal(t, 3, got.ValidRows)
}

func TestPopularProductsRanking_NonPositiveTopN(t *testing.T) {
	got := PopularProductsRanking([]models.Transaction{product("MUG", "1")}, 0)

	assert.Empty(t, got.Entries)
	assert.Equal(t, 1, got.ValidRows)
}

func TestHourlySalesTrend_SingleHour(t *testing.T) {
	got := HourlySalesTrend([]models.Transaction{at(14, "50", "2")})

	require.Len(t, got.Hours, HoursPerDay)
	for h, bucket := range got.Hours {
		assert.Equal(t, h, bucket.Hour)
		if h == 14 {
			assert.True(t, bucket.Sales.Equal(dec("100")), "hour 14 = %s", bucket.Sales)
			continue
		}
		assert.True(t, bucket.Sales.IsZero(), "hour %d = %s", h, bucket.Sales)
	}

	assert.Equal(t, 14, got.Peak.Hour)
	assert.True(t, got.Peak.Sales.Equal(dec("100")))
	assert.Equal(t, 0, got.Lowest.Hour, "first zero hour in ascending order")
	assert.True(t, got.Lowest.Sales.IsZero())
	assert.Equal(t, 1, got.ValidRows)
}

func TestHourlySalesTrend_SumsAndExclusions(t *testing.T) {
	rows := []models.Transaction{
		at(8, "2.55", "6"),
		at(8, "1.85", "-2"),
		at(23, "10", "1"),
		at(0, "1", "1"),
		{UnitPrice: dec("99"), Quantity: dec("1")},
	}

	got := HourlySalesTrend(rows)

	assert.True(t, got.Hours[8].Sales.Equal(dec("11.60")))
	assert.True(t, got.Hours[23].Sales.Equal(dec("10")))
	assert.True(t, got.Hours[0].Sales.Equal(dec("1")))
	assert.Equal(t, 4, got.ValidRows)
	assert.Equal(t, 8, got.Peak.Hour)
	assert.Equal(t, 1, got.Lowest.Hour)
}

func TestHourlySalesTrend_NegativeLowest(t *testing.T) {
	rows := []models.Transaction{
		at(9, "5", "1"),
		at(17, "5", "-3"),
		at(18, "5", "-3"),
	}

	got := HourlySalesTrend(rows)

	assert.Equal(t, 17, got.Lowest.Hour, "first occurrence wins on tie")
	assert.True(t, got.Lowest.Sales.Equal(dec("-15")))
	assert.Equal(t, 9, got.Peak.Hour)
}

func TestHourlySalesTrend_Empty(t *testing.T) {
	got := HourlySalesTrend(nil)

	assert.Len(t, got.Hours, HoursPerDay)
	assert.Equal(t, 0, got.Peak.Hour)
	assert.Equal(t, 0, got.Lowest.Hour)
	assert.Zero(t, got.ValidRows)
}

func BenchmarkCustomerSalesRanking(b *testing.B) {
	rows := make([]models.Transaction, 10000)
	for i := range rows {
		rows[i] = sale(int64(i%500), "1.25", "3")
	}

	b.ResetTimer()
	for b.Loop() {
		_ = CustomerSalesRanking(rows, 10)
	}
}
