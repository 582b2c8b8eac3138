// Package analysis holds the report aggregations. Every function is pure: it
// reads the rows it is given and returns fresh slices.
package analysis

import (
	"slices"

	"github.com/shopspring/decimal"

	"retail-analytics/internal/models"
)

// HoursPerDay is the number of buckets in an hourly trend.
const HoursPerDay = 24

// CustomerSales is one customer's summed revenue.
type CustomerSales struct {
	CustomerID int64
	Sales      decimal.Decimal
}

// CustomerRanking is the top customers by revenue, largest first.
type CustomerRanking struct {
	Entries   []CustomerSales
	ValidRows int
}

// ProductQuantity is the summed quantity sold under one description.
type ProductQuantity struct {
	Description string
	Quantity    decimal.Decimal
}

// ProductRanking is the top products by quantity, largest first.
type ProductRanking struct {
	Entries   []ProductQuantity
	ValidRows int
}

// HourlySales is the revenue for one hour of the day.
type HourlySales struct {
	Hour  int
	Sales decimal.Decimal
}

// HourlyTrend always has one bucket per hour, ordered 0 to 23.
type HourlyTrend struct {
	Hours     [HoursPerDay]HourlySales
	Peak      HourlySales
	Lowest    HourlySales
	ValidRows int
}

// CustomerSalesRanking sums sales per customer and keeps the topN largest.
// Rows without a customer id are ignored.
func CustomerSalesRanking(rows []models.Transaction, topN int) CustomerRanking {
	groups := newGroups[int64, CustomerSales]()
	valid := 0

	for _, tx := range rows {
		id, err := tx.CustomerID.Take()
		if err != nil {
			continue
		}
		valid++
		entry := groups.get(id, func() CustomerSales { return CustomerSales{CustomerID: id} })
		entry.Sales = entry.Sales.Add(tx.Sales())
	}

	entries := groups.values()
	slices.SortStableFunc(entries, func(a, b CustomerSales) int {
		return b.Sales.Cmp(a.Sales)
	})

	return CustomerRanking{
		Entries:   truncate(entries, topN),
		ValidRows: valid,
	}
}

// PopularProductsRanking sums quantity per product description and keeps the
// topN largest. Returns count negatively, so totals can drop below zero.
func PopularProductsRanking(rows []models.Transaction, topN int) ProductRanking {
	groups := newGroups[string, ProductQuantity]()
	valid := 0

	for _, tx := range rows {
		if tx.Description == "" {
			continue
		}
		valid++
		entry := groups.get(tx.Description, func() ProductQuantity { return ProductQuantity{Description: tx.Description} })
		entry.Quantity = entry.Quantity.Add(tx.Quantity)
	}

	entries := groups.values()
	slices.SortStableFunc(entries, func(a, b ProductQuantity) int {
		return b.Quantity.Cmp(a.Quantity)
	})

	return ProductRanking{
		Entries:   truncate(entries, topN),
		ValidRows: valid,
	}
}

// HourlySalesTrend buckets sales by the hour of the invoice timestamp. Hours
// without transactions are present with zero sales.
func HourlySalesTrend(rows []models.Transaction) HourlyTrend {
	var trend HourlyTrend
	for h := range trend.Hours {
		trend.Hours[h] = HourlySales{Hour: h, Sales: decimal.Zero}
	}

	for _, tx := range rows {
		ts, err := tx.InvoiceDate.Take()
		if err != nil {
			continue
		}
		trend.ValidRows++
		bucket := &trend.Hours[ts.Hour()]
		bucket.Sales = bucket.Sales.Add(tx.Sales())
	}

	trend.Peak = trend.Hours[0]
	trend.Lowest = trend.Hours[0]
	for _, bucket := range trend.Hours[1:] {
		if bucket.Sales.GreaterThan(trend.Peak.Sales) {
			trend.Peak = bucket
		}
		if bucket.Sales.LessThan(trend.Lowest.Sales) {
			trend.Lowest = bucket
		}
	}

	return trend
}

func truncate[T any](entries []T, topN int) []T {
	if topN <= 0 {
		return []T{}
	}
	if len(entries) > topN {
		return entries[:topN]
	}
	return entries
}

// groups is an insertion-ordered accumulator so that the stable sort breaks
// ties by first appearance in the input.
type groups[K comparable, V any] struct {
	index map[K]int
	items []V
}

func newGroups[K comparable, V any]() *groups[K, V] {
	return &groups[K, V]{index: make(map[K]int)}
}

func (g *groups[K, V]) get(key K, init func() V) *V {
	i, ok := g.index[key]
	if !ok {
		i = len(g.items)
		g.index[key] = i
		g.items = append(g.items, init())
	}
	return &g.items[i]
}

func (g *groups[K, V]) values() []V {
	return slices.Clone(g.items)
}
