package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/slotbank/internal/model"
)

// Row is one account read from an import file. Line is the 1-based line or
// record number in the file.
type Row struct {
	Line      int
	Number    int
	LastName  string
	FirstName string
	Balance   decimal.Decimal
}

// Parser converts an account listing into Rows.
type Parser interface {
	Parse(r io.Reader) ([]Row, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CSVParser{})
	r.Register(&TextParser{})
	return r
}

// DetectFormat guesses the format of path from its extension: ".csv" files
// are CSV, anything else is the fixed-width text listing.
func DetectFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "csv"
	}
	return "text"
}

// ParseFile parses the file at path with the parser registered for format.
func (r *Registry) ParseFile(path, format string) ([]Row, error) {
	p := r.Get(format)
	if p == nil {
		return nil, fmt.Errorf("unknown import format %q (have %s)", format, strings.Join(r.Formats(), ", "))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rows, nil
}

// Creator opens new accounts.
type Creator interface {
	Create(number int, firstName, lastName string, initialBalance decimal.Decimal) (model.Account, error)
}

// RowError is a row that could not be imported.
type RowError struct {
	Row Row
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d (account %d): %v", e.Row.Line, e.Row.Number, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result reports the outcome of Import.
type Result struct {
	Created []model.Account
	Failed  []RowError
}

// Import creates one account per row. A failing row is recorded and the
// remaining rows are still imported.
func Import(c Creator, rows []Row) Result {
	var res Result
	for _, row := range rows {
		acct, err := c.Create(row.Number, row.FirstName, row.LastName, row.Balance)
		if err != nil {
			res.Failed = append(res.Failed, RowError{Row: row, Err: err})
			continue
		}
		res.Created = append(res.Created, acct)
	}
	return res
}
