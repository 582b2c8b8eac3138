package models

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// Transaction is one line of the retail spreadsheet. An empty Description
// stands for a missing one.
type Transaction struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    decimal.Decimal
	InvoiceDate optional.Option[time.Time]
	UnitPrice   decimal.Decimal
	CustomerID  optional.Option[int64]
	Country     string
}

// Sales is the line value, unit price times quantity.
func (t Transaction) Sales() decimal.Decimal {
	return t.UnitPrice.Mul(t.Quantity)
}

type CustomerSales struct {
	Rank       int     `json:"rank"`
	CustomerID int64   `json:"customer_id"`
	Sales      float64 `json:"sales"`
}

type ProductQuantity struct {
	Rank        int     `json:"rank"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
}

type HourlySales struct {
	Hour  int     `json:"hour"`
	Sales float64 `json:"sales"`
}

type CustomerSalesRankingReport struct {
	Status         string          `json:"status"`
	Usecase        string          `json:"usecase"`
	TopN           int             `json:"top_n"`
	Ranking        []CustomerSales `json:"ranking"`
	GraphURL       string          `json:"graph_url"`
	TotalRecords   int             `json:"total_records"`
	ValidRecords   int             `json:"valid_records"`
	ValidCustomers int             `json:"valid_customers"`
}

type PopularProductsReport struct {
	Status        string            `json:"status"`
	Usecase       string            `json:"usecase"`
	TopN          int               `json:"top_n"`
	Ranking       []ProductQuantity `json:"ranking"`
	GraphURL      string            `json:"graph_url"`
	TotalRecords  int               `json:"total_records"`
	ValidRecords  int               `json:"valid_records"`
	ValidProducts int               `json:"valid_products"`
}

type HourlySalesTrendReport struct {
	Status       string        `json:"status"`
	Usecase      string        `json:"usecase"`
	Data         []HourlySales `json:"data"`
	GraphURL     string        `json:"graph_url"`
	TotalRecords int           `json:"total_records"`
	ValidRecords int           `json:"valid_records"`
	PeakHour     int           `json:"peak_hour"`
	PeakSales    float64       `json:"peak_sales"`
	LowestHour   int           `json:"lowest_hour"`
	LowestSales  float64       `json:"lowest_sales"`
}

// Overview bundles the three reports computed from a single load.
type Overview struct {
	Customers *CustomerSalesRankingReport `json:"customers"`
	Products  *PopularProductsReport      `json:"products"`
	Hourly    *HourlySalesTrendReport     `json:"hourly"`
}

type ChartFile struct {
	Filename  string    `json:"filename"`
	Kind      string    `json:"kind"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}
