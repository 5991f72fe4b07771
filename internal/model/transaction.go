package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a history entry.
type TransactionType string

const (
	TransactionDeposit  TransactionType = "Deposit"
	TransactionWithdraw TransactionType = "Withdraw"
	TransactionInitial  TransactionType = "Initial"
)

// TypeForDelta returns Deposit for a non-negative delta and Withdraw otherwise.
func TypeForDelta(delta decimal.Decimal) TransactionType {
	if delta.IsNegative() {
		return TransactionWithdraw
	}
	return TransactionDeposit
}

// Transaction is one entry in an account's history.
type Transaction struct {
	Date         time.Time // second resolution, set when appended
	Amount       decimal.Decimal
	Type         TransactionType
	BalanceAfter decimal.Decimal
}
