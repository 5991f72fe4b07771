// Package report answers whole-ledger questions by scanning every slot in
// order: listing, search and the summary.
package report

import (
	"iter"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/slotbank/internal/model"
)

// SlotReader scans the slots of a store. All yields every slot, empty ones
// as the zero Account.
type SlotReader interface {
	Slots() int
	All() iter.Seq2[model.Account, error]
}

// Engine runs scans over a SlotReader.
type Engine struct {
	slots SlotReader
}

// NewEngine creates an Engine over slots.
func NewEngine(slots SlotReader) *Engine {
	return &Engine{slots: slots}
}

// Accounts yields the occupied slots in slot order. Each call starts a fresh
// scan from slot 1. A read error is yielded once and ends the scan.
func (e *Engine) Accounts() iter.Seq2[model.Account, error] {
	return func(yield func(model.Account, error) bool) {
		for a, err := range e.slots.All() {
			if err != nil {
				yield(model.Account{}, err)
				return
			}
			if a.IsEmpty() {
				continue
			}
			if !yield(a, nil) {
				return
			}
		}
	}
}

// Summary aggregates balances over all occupied accounts.
type Summary struct {
	ActiveAccounts int
	TotalBalance   decimal.Decimal
	// Average, Highest and Lowest are only meaningful when ActiveAccounts > 0.
	Average        decimal.Decimal
	HighestBalance decimal.Decimal
	HighestAccount uint32
	LowestBalance  decimal.Decimal
	LowestAccount  uint32
	Capacity       int
	Available      int
}

// HasAccounts reports whether the averages and extremes are set.
func (s Summary) HasAccounts() bool {
	return s.ActiveAccounts > 0
}

// Summary scans the ledger once. Ties for highest or lowest balance go to the
// lowest account number.
func (e *Engine) Summary() (Summary, error) {
	sum := Summary{TotalBalance: decimal.Zero, Capacity: e.slots.Slots()}

	for a, err := range e.Accounts() {
		if err != nil {
			return Summary{}, err
		}
		if sum.ActiveAccounts == 0 || a.Balance.GreaterThan(sum.HighestBalance) {
			sum.HighestBalance = a.Balance
			sum.HighestAccount = a.Number
		}
		if sum.ActiveAccounts == 0 || a.Balance.LessThan(sum.LowestBalance) {
			sum.LowestBalance = a.Balance
			sum.LowestAccount = a.Number
		}
		sum.ActiveAccounts++
		sum.TotalBalance = sum.TotalBalance.Add(a.Balance)
	}

	if sum.ActiveAccounts > 0 {
		sum.Average = sum.TotalBalance.Div(decimal.NewFromInt(int64(sum.ActiveAccounts)))
	}
	sum.Available = sum.Capacity - sum.ActiveAccounts
	return sum, nil
}

// SearchByName returns accounts whose first or last name contains term,
// ignoring ASCII case, in slot order.
func (e *Engine) SearchByName(term string) ([]model.Account, error) {
	needle := foldASCII(term)

	var matches []model.Account
	for a, err := range e.Accounts() {
		if err != nil {
			return nil, err
		}
		if strings.Contains(foldASCII(a.LastName), needle) || strings.Contains(foldASCII(a.FirstName), needle) {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

// foldASCII lowercases A-Z only; other bytes are left alone.
func foldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
