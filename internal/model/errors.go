package model

import "errors"

// Failure reasons shared by the store and the services built on it.
// Callers classify with errors.Is; the wrapped message carries the detail.
var (
	// ErrInvalidRange reports an account or slot number outside 1..N.
	ErrInvalidRange = errors.New("account number out of range")
	// ErrNotFound reports an empty slot, or a missing backup file.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists reports a create on an occupied slot.
	ErrAlreadyExists = errors.New("account already exists")
	// ErrIO reports a failed read, write, open, or truncate.
	ErrIO = errors.New("i/o error")
	// ErrCorruptFile reports a store or backup file whose size or contents
	// do not match the slot layout.
	ErrCorruptFile = errors.New("corrupt store file")
)
