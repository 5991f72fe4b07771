package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Name capacities in bytes, excluding the terminating NUL of the on-disk buffer.
const (
	MaxLastNameLen  = 14
	MaxFirstNameLen = 9
)

// Account is the contents of one occupied slot. The zero value is the empty
// sentinel.
type Account struct {
	Number    uint32 // equals the slot index; 0 marks an empty slot
	LastName  string
	FirstName string
	Balance   decimal.Decimal
	History   History
}

// IsEmpty reports whether a is the empty-slot sentinel.
func (a Account) IsEmpty() bool {
	return a.Number == 0
}

// TransactionCount returns the number of history entries.
func (a Account) TransactionCount() int {
	return a.History.Len()
}

// Apply adds amount to the balance and records it in the history with the
// resulting balance. Balance changes always go through here so that every
// change has exactly one history entry.
func (a *Account) Apply(amount decimal.Decimal, kind TransactionType, at time.Time) {
	a.Balance = a.Balance.Add(amount)
	a.History.Append(Transaction{
		Date:         at.Truncate(time.Second),
		Amount:       amount,
		Type:         kind,
		BalanceAfter: a.Balance,
	})
}

// TruncateName drops NUL bytes from s and cuts it to at most n bytes without
// splitting a UTF-8 sequence.
func TruncateName(s string, n int) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
