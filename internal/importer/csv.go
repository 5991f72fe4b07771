package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/slotbank/internal/report"
)

// CSVParser parses the CSV account export.
type CSVParser struct{}

const (
	csvNumFields    = 5
	csvColAccount   = 0
	csvColLastName  = 1
	csvColFirstName = 2
	csvColBalance   = 3
)

// Format returns the parser name.
func (p *CSVParser) Format() string { return "csv" }

// Parse reads a CSV export. The transactions column is ignored: imported
// accounts start with a fresh history.
func (p *CSVParser) Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = csvNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading account CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if !slices.Equal(records[0], report.CSVHeader) {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(records[0], ","))
	}

	var rows []Row
	for i, rec := range records[1:] {
		row, err := parseCSVRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		row.Line = i + 2
		rows = append(rows, row)
	}
	return rows, nil
}

func parseCSVRow(rec []string) (Row, error) {
	number, err := strconv.Atoi(rec[csvColAccount])
	if err != nil {
		return Row{}, fmt.Errorf("parsing account %q: %w", rec[csvColAccount], err)
	}

	balance, err := decimal.NewFromString(rec[csvColBalance])
	if err != nil {
		return Row{}, fmt.Errorf("parsing balance %q: %w", rec[csvColBalance], err)
	}

	return Row{
		Number:    number,
		LastName:  rec[csvColLastName],
		FirstName: rec[csvColFirstName],
		Balance:   balance,
	}, nil
}
