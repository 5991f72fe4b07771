package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/slotbank/internal/model"
)

// Slot layout. All integers and floats are little-endian; strings are
// NUL-padded fixed-width buffers.
const (
	numberOffset    = 0
	lastNameOffset  = 4
	lastNameLength  = 15
	firstNameOffset = 19
	firstNameLength = 10
	balanceOffset   = 29
	historyOffset   = 37

	entryDateOffset    = 0
	entryDateLength    = 20
	entryAmountOffset  = 20
	entryTypeOffset    = 28
	entryTypeLength    = 10
	entryBalanceOffset = 38
	entryLength        = 46

	countOffset = historyOffset + model.HistoryCapacity*entryLength

	// RecordSize is the width of one slot in bytes.
	RecordSize = countOffset + 4
)

// dateLayout is the stored transaction timestamp, e.g. 2024_01_15_10_30_45.
const dateLayout = "2006_01_02_15_04_05"

// encodeAccount converts an Account to its slot bytes. The sentinel encodes
// to RecordSize zero bytes.
func encodeAccount(a model.Account) []byte {
	buf := make([]byte, RecordSize)
	if a.IsEmpty() {
		return buf
	}

	binary.LittleEndian.PutUint32(buf[numberOffset:], a.Number)
	putString(buf[lastNameOffset:lastNameOffset+lastNameLength], a.LastName)
	putString(buf[firstNameOffset:firstNameOffset+firstNameLength], a.FirstName)
	putDecimal(buf[balanceOffset:], a.Balance)

	entries := a.History.Entries()
	for i, tx := range entries {
		entry := buf[historyOffset+i*entryLength : historyOffset+(i+1)*entryLength]
		if !tx.Date.IsZero() {
			putString(entry[entryDateOffset:entryDateOffset+entryDateLength], tx.Date.In(time.Local).Format(dateLayout))
		}
		putDecimal(entry[entryAmountOffset:], tx.Amount)
		putString(entry[entryTypeOffset:entryTypeOffset+entryTypeLength], string(tx.Type))
		putDecimal(entry[entryBalanceOffset:], tx.BalanceAfter)
	}
	binary.LittleEndian.PutUint32(buf[countOffset:], uint32(int32(len(entries))))

	return buf
}

// decodeAccount converts slot bytes to an Account. Any slot whose number is
// zero decodes as the sentinel.
func decodeAccount(buf []byte) (model.Account, error) {
	if len(buf) < RecordSize {
		return model.Account{}, fmt.Errorf("%w: slot data is %d bytes, want %d", model.ErrCorruptFile, len(buf), RecordSize)
	}

	number := binary.LittleEndian.Uint32(buf[numberOffset:])
	if number == 0 {
		return model.Account{}, nil
	}

	count := int32(binary.LittleEndian.Uint32(buf[countOffset:]))
	if count < 0 || count > model.HistoryCapacity {
		return model.Account{}, fmt.Errorf("%w: transaction count %d", model.ErrCorruptFile, count)
	}

	balance, err := getDecimal(buf[balanceOffset:])
	if err != nil {
		return model.Account{}, fmt.Errorf("balance: %w", err)
	}

	entries := make([]model.Transaction, count)
	for i := range entries {
		entry := buf[historyOffset+i*entryLength : historyOffset+(i+1)*entryLength]
		tx, err := decodeTransaction(entry)
		if err != nil {
			return model.Account{}, fmt.Errorf("history entry %d: %w", i, err)
		}
		entries[i] = tx
	}

	return model.Account{
		Number:    number,
		LastName:  getString(buf[lastNameOffset : lastNameOffset+lastNameLength]),
		FirstName: getString(buf[firstNameOffset : firstNameOffset+firstNameLength]),
		Balance:   balance,
		History:   model.HistoryFrom(entries),
	}, nil
}

func decodeTransaction(entry []byte) (model.Transaction, error) {
	var tx model.Transaction

	if raw := getString(entry[entryDateOffset : entryDateOffset+entryDateLength]); raw != "" {
		date, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return tx, fmt.Errorf("%w: date %q", model.ErrCorruptFile, raw)
		}
		tx.Date = date
	}

	tx.Type = model.TransactionType(getString(entry[entryTypeOffset : entryTypeOffset+entryTypeLength]))
	switch tx.Type {
	case model.TransactionDeposit, model.TransactionWithdraw, model.TransactionInitial:
	default:
		return tx, fmt.Errorf("%w: transaction type %q", model.ErrCorruptFile, tx.Type)
	}

	var err error
	if tx.Amount, err = getDecimal(entry[entryAmountOffset:]); err != nil {
		return tx, fmt.Errorf("amount: %w", err)
	}
	if tx.BalanceAfter, err = getDecimal(entry[entryBalanceOffset:]); err != nil {
		return tx, fmt.Errorf("balance after: %w", err)
	}
	return tx, nil
}

// putString copies s into dst, leaving at least one trailing NUL.
func putString(dst []byte, s string) {
	n := copy(dst[:len(dst)-1], s)
	clear(dst[n:])
}

// getString returns the bytes of src up to the first NUL.
func getString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}
	return string(src)
}

// checkStorable reports an amount in a that would not survive the float64
// round trip: anything outside float64 range becomes ±Inf on disk.
func checkStorable(a model.Account) error {
	if !finite(a.Balance) {
		return fmt.Errorf("%w: balance %s is too large to store", model.ErrInvalidRange, a.Balance)
	}
	for i, tx := range a.History.Entries() {
		if !finite(tx.Amount) || !finite(tx.BalanceAfter) {
			return fmt.Errorf("%w: history entry %d amount is too large to store", model.ErrInvalidRange, i)
		}
	}
	return nil
}

func finite(d decimal.Decimal) bool {
	return !math.IsInf(d.InexactFloat64(), 0)
}

func putDecimal(dst []byte, d decimal.Decimal) {
	binary.LittleEndian.PutUint64(dst, math.Float64bits(d.InexactFloat64()))
}

func getDecimal(src []byte) (decimal.Decimal, error) {
	f := math.Float64frombits(binary.LittleEndian.Uint64(src))
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: non-finite value %v", model.ErrCorruptFile, f)
	}
	return decimal.NewFromFloat(f), nil
}
