// Package dataset loads the retail transaction spreadsheet into memory.
//
// A load is all-or-nothing: either every row parses or the caller gets an
// error and no table. Nothing is cached between loads.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"retail-analytics/internal/models"
)

const (
	chunkSize  = 5000
	maxWorkers = 10
)

// ErrNotFound is returned when the data file does not exist.
var ErrNotFound = errors.New("data file not found")

// LoadError reports a data file that exists but could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Table is the full content of one load, rows in file order.
type Table struct {
	Path     string
	Rows     []models.Transaction
	LoadedAt time.Time
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Load reads the spreadsheet at path. Workbooks (.xlsx, .xlsm) are read from
// their first sheet, .csv files as comma separated text with a header row.
func Load(ctx context.Context, path string) (*Table, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, &LoadError{Path: path, Err: errors.New("no header row")}
	}

	cols, err := mapColumns(records[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rows, err := parseRows(ctx, cols, records[1:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Table{
		Path:     path,
		Rows:     rows,
		LoadedAt: time.Now(),
	}, nil
}

func readRecords(path string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, &LoadError{Path: path, Err: err}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	case ".csv":
		return readCSV(path)
	default:
		return nil, &LoadError{Path: path, Err: fmt.Errorf("unsupported file type %q", ext)}
	}
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &LoadError{Path: path, Err: errors.New("workbook has no sheets")}
	}

	// Raw values keep dates as serial numbers instead of locale formatted text.
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}
	return records, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func parseRows(ctx context.Context, cols columns, records [][]string) ([]models.Transaction, error) {
	type numbered struct {
		line   int
		record []string
	}

	pending := make([]numbered, 0, len(records))
	for i, record := range records {
		if isBlank(record) {
			continue
		}
		// +2: one for the header, one for 1-based line numbers.
		pending = append(pending, numbered{line: i + 2, record: record})
	}

	rows := make([]models.Transaction, len(pending))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(pending); start += chunkSize {
		end := min(start+chunkSize, len(pending))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				tx, err := cols.parse(pending[i].line, pending[i].record)
				if err != nil {
					return err
				}
				rows[i] = tx
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
