package accounts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/slotbank/internal/model"
)

// SlotStore reads and writes single account slots.
type SlotStore interface {
	Slots() int
	Read(index int) (model.Account, error)
	Write(index int, a model.Account) error
	Clear(index int) error
}

// Service provides account CRUD over a slot store. An account's number is
// always its slot index.
type Service struct {
	store SlotStore
	now   func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store SlotStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Capacity returns the number of account slots.
func (s *Service) Capacity() int {
	return s.store.Slots()
}

// Create opens account number with the given names and opening balance. A
// positive opening balance is recorded as an Initial transaction.
func (s *Service) Create(number int, firstName, lastName string, initialBalance decimal.Decimal) (model.Account, error) {
	existing, err := s.load(number)
	if err != nil {
		return model.Account{}, err
	}
	if !existing.IsEmpty() {
		return model.Account{}, fmt.Errorf("%w: account %d", model.ErrAlreadyExists, number)
	}

	acct := model.Account{
		Number:    uint32(number),
		LastName:  model.TruncateName(lastName, model.MaxLastNameLen),
		FirstName: model.TruncateName(firstName, model.MaxFirstNameLen),
	}
	if initialBalance.IsPositive() {
		acct.Apply(initialBalance, model.TransactionInitial, s.now())
	} else {
		acct.Balance = initialBalance
	}

	if err := s.store.Write(number, acct); err != nil {
		return model.Account{}, fmt.Errorf("saving account %d: %w", number, err)
	}
	return acct, nil
}

// Get returns a copy of account number.
func (s *Service) Get(number int) (model.Account, error) {
	return s.occupied(number)
}

// Update adds delta to the balance of account number and records it as a
// Deposit (delta >= 0) or Withdraw (delta < 0). The balance may go negative.
func (s *Service) Update(number int, delta decimal.Decimal) (model.Account, error) {
	acct, err := s.occupied(number)
	if err != nil {
		return model.Account{}, err
	}

	acct.Apply(delta, model.TypeForDelta(delta), s.now())

	if err := s.store.Write(number, acct); err != nil {
		return model.Account{}, fmt.Errorf("saving account %d: %w", number, err)
	}
	return acct, nil
}

// Delete empties the slot of account number, discarding its history.
func (s *Service) Delete(number int) error {
	if _, err := s.occupied(number); err != nil {
		return err
	}
	if err := s.store.Clear(number); err != nil {
		return fmt.Errorf("clearing account %d: %w", number, err)
	}
	return nil
}

// History returns the transactions of account number, oldest first.
func (s *Service) History(number int) ([]model.Transaction, error) {
	acct, err := s.occupied(number)
	if err != nil {
		return nil, err
	}
	return acct.History.Entries(), nil
}

func (s *Service) occupied(number int) (model.Account, error) {
	acct, err := s.load(number)
	if err != nil {
		return model.Account{}, err
	}
	if acct.IsEmpty() {
		return model.Account{}, fmt.Errorf("%w: account %d", model.ErrNotFound, number)
	}
	return acct, nil
}

func (s *Service) load(number int) (model.Account, error) {
	if number < 1 || number > s.store.Slots() {
		return model.Account{}, fmt.Errorf("%w: %d not in 1..%d", model.ErrInvalidRange, number, s.store.Slots())
	}
	acct, err := s.store.Read(number)
	if err != nil {
		return model.Account{}, fmt.Errorf("reading account %d: %w", number, err)
	}
	return acct, nil
}
