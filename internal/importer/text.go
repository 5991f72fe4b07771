package importer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// TextParser parses the fixed-width text account export.
type TextParser struct{}

// Column widths of the text export, in runes.
const (
	textAccountWidth   = 6
	textLastNameWidth  = 16
	textFirstNameWidth = 11
	textHeaderPrefix   = "Acct"
)

// Format returns the parser name.
func (p *TextParser) Format() string { return "text" }

// Parse reads a text export. Blank lines are skipped; the first non-blank
// line must be the column header.
func (p *TextParser) Parse(r io.Reader) ([]Row, error) {
	sc := bufio.NewScanner(r)

	var rows []Row
	seenHeader := false
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), " \r")
		if text == "" {
			continue
		}
		if !seenHeader {
			if !strings.HasPrefix(text, textHeaderPrefix) {
				return nil, fmt.Errorf("line %d: missing header", line)
			}
			seenHeader = true
			continue
		}

		row, err := parseTextRow(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row.Line = line
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading account listing: %w", err)
	}
	return rows, nil
}

func parseTextRow(text string) (Row, error) {
	// fmt pads by rune count, so columns are cut on runes.
	runes := []rune(text)
	nameEnd := textAccountWidth + textLastNameWidth + textFirstNameWidth
	if len(runes) <= nameEnd {
		return Row{}, fmt.Errorf("short line %q", text)
	}

	field := func(from, to int) string {
		return strings.TrimSpace(string(runes[from:to]))
	}

	numStr := field(0, textAccountWidth)
	number, err := strconv.Atoi(numStr)
	if err != nil {
		return Row{}, fmt.Errorf("parsing account %q: %w", numStr, err)
	}

	balStr := field(nameEnd, len(runes))
	balance, err := decimal.NewFromString(balStr)
	if err != nil {
		return Row{}, fmt.Errorf("parsing balance %q: %w", balStr, err)
	}

	return Row{
		Number:    number,
		LastName:  field(textAccountWidth, textAccountWidth+textLastNameWidth),
		FirstName: field(textAccountWidth+textLastNameWidth, nameEnd),
		Balance:   balance,
	}, nil
}
