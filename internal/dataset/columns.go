package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"retail-analytics/internal/models"
)

const (
	colInvoiceNo   = "InvoiceNo"
	colStockCode   = "StockCode"
	colDescription = "Description"
	colQuantity    = "Quantity"
	colInvoiceDate = "InvoiceDate"
	colUnitPrice   = "UnitPrice"
	colCustomerID  = "CustomerID"
	colCountry     = "Country"
)

// ErrMissingColumn is returned when the header lacks a column the reports need.
var ErrMissingColumn = errors.New("missing column")

// Naive timestamps; no zone conversion is applied.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04",
	"1/2/06 15:04",
}

// RowError reports a cell that could not be converted.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %s: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// columns holds the position of each known header, -1 when absent.
type columns struct {
	invoiceNo   int
	stockCode   int
	description int
	quantity    int
	invoiceDate int
	unitPrice   int
	customerID  int
	country     int
}

func mapColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	lookup := func(name string) int {
		if i, ok := index[strings.ToLower(name)]; ok {
			return i
		}
		return -1
	}

	cols := columns{
		invoiceNo:   lookup(colInvoiceNo),
		stockCode:   lookup(colStockCode),
		description: lookup(colDescription),
		quantity:    lookup(colQuantity),
		invoiceDate: lookup(colInvoiceDate),
		unitPrice:   lookup(colUnitPrice),
		customerID:  lookup(colCustomerID),
		country:     lookup(colCountry),
	}

	required := []struct {
		name string
		pos  int
	}{
		{colDescription, cols.description},
		{colQuantity, cols.quantity},
		{colInvoiceDate, cols.invoiceDate},
		{colUnitPrice, cols.unitPrice},
		{colCustomerID, cols.customerID},
	}

	var missing []string
	for _, r := range required {
		if r.pos < 0 {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	return cols, nil
}

func (c columns) parse(line int, record []string) (models.Transaction, error) {
	// Text columns are kept verbatim: "MUG " and "MUG" are different products.
	text := func(pos int) string {
		if pos < 0 || pos >= len(record) {
			return ""
		}
		return record[pos]
	}
	cell := func(pos int) string { return strings.TrimSpace(text(pos)) }

	quantity, err := parseDecimal(cell(c.quantity))
	if err != nil {
		return models.Transaction{}, &RowError{Line: line, Column: colQuantity, Value: cell(c.quantity), Err: err}
	}

	unitPrice, err := parseDecimal(cell(c.unitPrice))
	if err != nil {
		return models.Transaction{}, &RowError{Line: line, Column: colUnitPrice, Value: cell(c.unitPrice), Err: err}
	}

	customerID, err := parseCustomerID(cell(c.customerID))
	if err != nil {
		return models.Transaction{}, &RowError{Line: line, Column: colCustomerID, Value: cell(c.customerID), Err: err}
	}

	invoiceDate, err := parseInvoiceDate(cell(c.invoiceDate))
	if err != nil {
		return models.Transaction{}, &RowError{Line: line, Column: colInvoiceDate, Value: cell(c.invoiceDate), Err: err}
	}

	return models.Transaction{
		InvoiceNo:   text(c.invoiceNo),
		StockCode:   text(c.stockCode),
		Description: text(c.description),
		Quantity:    quantity,
		InvoiceDate: invoiceDate,
		UnitPrice:   unitPrice,
		CustomerID:  customerID,
		Country:     text(c.country),
	}, nil
}

// parseDecimal treats an empty cell as zero so it drops out of sums.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseCustomerID(s string) (optional.Option[int64], error) {
	if s == "" {
		return optional.None[int64](), nil
	}

	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return optional.Some(id), nil
	}

	// Spreadsheets often store ids as floats, e.g. 17850.0.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("not an integer")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, fmt.Errorf("out of range")
	}
	return optional.Some(int64(f)), nil
}

func parseInvoiceDate(s string) (optional.Option[time.Time], error) {
	if s == "" {
		return optional.None[time.Time](), nil
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil, err
		}
		// Serial fractions carry float noise; 8:00 can come back as 7:59:59.999.
		return optional.Some(t.Round(time.Second)), nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return optional.Some(t), nil
		}
	}
	return nil, fmt.Errorf("unrecognised timestamp format")
}
