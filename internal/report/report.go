// Package report shapes aggregation results into the JSON documents returned
// by the API and into the plain text summary printed on the console.
package report

import (
	"retail-analytics/internal/analysis"
	"retail-analytics/internal/models"
)

const (
	StatusSuccess = "success"

	UsecaseCustomerSales   = "Customer sales ranking"
	UsecasePopularProducts = "Popular products ranking"
	UsecaseHourlySales     = "Hourly sales trend"

	OutputURLPrefix = "/output/"
)

// GraphURL is the relative URL a chart file is served under.
func GraphURL(filename string) string {
	return OutputURLPrefix + filename
}

func CustomerSalesRanking(r analysis.CustomerRanking, topN, totalRecords int, graphFile string) *models.CustomerSalesRankingReport {
	ranking := make([]models.CustomerSales, 0, len(r.Entries))
	for i, e := range r.Entries {
		ranking = append(ranking, models.CustomerSales{
			Rank:       i + 1,
			CustomerID: e.CustomerID,
			Sales:      e.Sales.InexactFloat64(),
		})
	}

	return &models.CustomerSalesRankingReport{
		Status:         StatusSuccess,
		Usecase:        UsecaseCustomerSales,
		TopN:           topN,
		Ranking:        ranking,
		GraphURL:       GraphURL(graphFile),
		TotalRecords:   totalRecords,
		ValidRecords:   r.ValidRows,
		ValidCustomers: len(ranking),
	}
}

func PopularProductsRanking(r analysis.ProductRanking, topN, totalRecords int, graphFile string) *models.PopularProductsReport {
	ranking := make([]models.ProductQuantity, 0, len(r.Entries))
	for i, e := range r.Entries {
		ranking = append(ranking, models.ProductQuantity{
			Rank:        i + 1,
			ProductName: e.Description,
			Quantity:    e.Quantity.InexactFloat64(),
		})
	}

	return &models.PopularProductsReport{
		Status:        StatusSuccess,
		Usecase:       UsecasePopularProducts,
		TopN:          topN,
		Ranking:       ranking,
		GraphURL:      GraphURL(graphFile),
		TotalRecords:  totalRecords,
		ValidRecords:  r.ValidRows,
		ValidProducts: len(ranking),
	}
}

func HourlySalesTrend(t analysis.HourlyTrend, totalRecords int, graphFile string) *models.HourlySalesTrendReport {
	data := make([]models.HourlySales, 0, len(t.Hours))
	for _, h := range t.Hours {
		data = append(data, models.HourlySales{
			Hour:  h.Hour,
			Sales: h.Sales.InexactFloat64(),
		})
	}

	return &models.HourlySalesTrendReport{
		Status:       StatusSuccess,
		Usecase:      UsecaseHourlySales,
		Data:         data,
		GraphURL:     GraphURL(graphFile),
		TotalRecords: totalRecords,
		ValidRecords: t.ValidRows,
		PeakHour:     t.Peak.Hour,
		PeakSales:    t.Peak.Sales.InexactFloat64(),
		LowestHour:   t.Lowest.Hour,
		LowestSales:  t.Lowest.Sales.InexactFloat64(),
	}
}
