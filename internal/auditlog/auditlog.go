package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Operation names a mutating ledger operation.
type Operation string

const (
	OpCreate  Operation = "create"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
	OpBackup  Operation = "backup"
	OpRestore Operation = "restore"
)

// Entry is one row in the audit log. Account is 0 for whole-file operations.
type Entry struct {
	Timestamp time.Time
	Operation Operation
	Account   int
	Details   string
}

// Header is the CSV header of an audit log file.
const Header = "timestamp,operation,account,details"

const (
	numFields    = 4
	colTimestamp = 0
	colOperation = 1
	colAccount   = 2
	colDetails   = 3
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colOperation] = string(e.Operation)
	if e.Account != 0 {
		row[colAccount] = strconv.Itoa(e.Account)
	}
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var account int
	if record[colAccount] != "" {
		account, err = strconv.Atoi(record[colAccount])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing account %q: %w", record[colAccount], err)
		}
	}

	return Entry{
		Timestamp: ts,
		Operation: Operation(record[colOperation]),
		Account:   account,
		Details:   record[colDetails],
	}, nil
}

// Append writes entries to the log at path, creating the file, its directory
// and the header if needed.
func Append(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating audit log dir: %w", err)
		}
	}

	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries in the log at path, or nil if it does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Logger appends entries to one audit file. A Logger with an empty path
// discards everything.
type Logger struct {
	path string
	now  func() time.Time
}

// NewLogger creates a Logger writing to path.
func NewLogger(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Record appends a single entry stamped with the current time.
func (l *Logger) Record(op Operation, account int, details string) error {
	if l == nil || l.path == "" {
		return nil
	}
	return Append(l.path, []Entry{{
		Timestamp: l.now(),
		Operation: op,
		Account:   account,
		Details:   details,
	}})
}
