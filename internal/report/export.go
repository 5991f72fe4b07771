package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cleared-dev/slotbank/internal/model"
)

// Export formats.
const (
	FormatText = "text"
	FormatCSV  = "csv"
)

const (
	textHeader = "%-6s%-16s%-11s%10s\n"
	textRow    = "%-6d%-16s%-11s%10.2f\n"
)

// CSVHeader is the header row of a CSV export.
var CSVHeader = []string{"account", "last_name", "first_name", "balance", "transactions"}

const (
	numFields    = 5
	colAccount   = 0
	colLastName  = 1
	colFirstName = 2
	colBalance   = 3
	colTxCount   = 4
)

// Export writes every occupied account to w in format and returns how many
// accounts were written.
func (e *Engine) Export(w io.Writer, format string) (int, error) {
	switch format {
	case FormatText, "":
		return e.WriteText(w)
	case FormatCSV:
		return e.WriteCSV(w)
	default:
		return 0, fmt.Errorf("unknown export format %q", format)
	}
}

// WriteText writes the fixed-width listing: Acct, Last Name, First Name,
// Balance.
func (e *Engine) WriteText(w io.Writer) (int, error) {
	if _, err := fmt.Fprintf(w, textHeader, "Acct", "Last Name", "First Name", "Balance"); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	n := 0
	for a, err := range e.Accounts() {
		if err != nil {
			return n, err
		}
		if _, err := fmt.Fprintf(w, textRow, a.Number, a.LastName, a.FirstName, a.Balance.InexactFloat64()); err != nil {
			return n, fmt.Errorf("writing account %d: %w", a.Number, err)
		}
		n++
	}
	return n, nil
}

// WriteCSV writes the listing as CSV with a header row.
func (e *Engine) WriteCSV(w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(CSVHeader); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	n := 0
	for a, err := range e.Accounts() {
		if err != nil {
			return n, err
		}
		if err := cw.Write(MarshalAccount(a)); err != nil {
			return n, fmt.Errorf("writing row %d: %w", n+2, err)
		}
		n++
	}

	cw.Flush()
	return n, cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(a model.Account) []string {
	row := make([]string, numFields)
	row[colAccount] = strconv.FormatUint(uint64(a.Number), 10)
	row[colLastName] = a.LastName
	row[colFirstName] = a.FirstName
	row[colBalance] = a.Balance.StringFixed(2)
	row[colTxCount] = strconv.Itoa(a.TransactionCount())
	return row
}
