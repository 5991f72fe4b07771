// Package store keeps accounts in a single file of fixed-size slots, one per
// account number. Slot i (1-based) lives at byte offset (i-1)*RecordSize and
// the file is always exactly slots*RecordSize bytes long.
//
// A slot write is a single positioned write of RecordSize bytes. It is
// assumed to land all-or-nothing; if the process dies part way through, the
// slot's contents are undefined and nothing here repairs them. Replace is not
// transactional either: an interruption after the primary file is truncated
// loses its data.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"sync"

	"github.com/cleared-dev/slotbank/internal/model"
)

// Store owns the open slot file. Every method takes the store lock, so a
// Replace never interleaves with a read or write.
type Store struct {
	mu    sync.Mutex
	path  string
	slots int
	f     *os.File
}

// Open opens the slot file at path, creating it with all slots empty if it
// does not exist. An existing file must be exactly slots*RecordSize bytes.
func Open(path string, slots int) (*Store, error) {
	if slots <= 0 {
		return nil, fmt.Errorf("%w: slot count %d", model.ErrInvalidRange, slots)
	}
	size := int64(slots) * RecordSize

	var f *os.File
	stat, err := os.Stat(path)
	switch {
	case err == nil:
		if stat.IsDir() {
			return nil, fmt.Errorf("%w: store path %s is a directory", model.ErrIO, path)
		}
		if stat.Size() != size {
			return nil, fmt.Errorf("%w: %s is %d bytes, want %d (%d slots of %d bytes)",
				model.ErrCorruptFile, path, stat.Size(), size, slots, RecordSize)
		}
		f, err = os.OpenFile(path, os.O_RDWR, 0o644)
		if err != nil {
			return nil, fmt.Errorf("%w: opening store: %w", model.ErrIO, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		f, err = createSlotFile(path, size)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: checking store: %w", model.ErrIO, err)
	}

	return &Store{path: path, slots: slots, f: f}, nil
}

// createSlotFile creates path pre-sized to size zero bytes, i.e. all sentinels.
func createSlotFile(path string, size int64) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: creating store: %w", model.ErrIO, err)
	}
	if err := f.Truncate(size); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: sizing new store to %d bytes: %w", model.ErrIO, size, err)
	}
	return f, nil
}

// Path returns the slot file path.
func (s *Store) Path() string {
	return s.path
}

// Slots returns the number of slots N.
func (s *Store) Slots() int {
	return s.slots
}

// Size returns the expected file size in bytes.
func (s *Store) Size() int64 {
	return int64(s.slots) * RecordSize
}

// Read returns the contents of slot index, which is the zero Account when the
// slot is empty.
func (s *Store) Read(index int) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(index); err != nil {
		return model.Account{}, err
	}

	buf := make([]byte, RecordSize)
	if _, err := s.f.ReadAt(buf, offset(index)); err != nil {
		return model.Account{}, fmt.Errorf("%w: reading slot %d: %w", model.ErrIO, index, err)
	}

	a, err := decodeAccount(buf)
	if err != nil {
		return model.Account{}, fmt.Errorf("slot %d: %w", index, err)
	}
	if !a.IsEmpty() && a.Number != uint32(index) {
		return model.Account{}, fmt.Errorf("%w: slot %d holds account %d", model.ErrCorruptFile, index, a.Number)
	}
	return a, nil
}

// Write overwrites slot index with a. A non-empty a must carry Number == index.
func (s *Store) Write(index int, a model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(index); err != nil {
		return err
	}
	if !a.IsEmpty() && a.Number != uint32(index) {
		return fmt.Errorf("%w: account %d cannot be stored in slot %d", model.ErrInvalidRange, a.Number, index)
	}
	if err := checkStorable(a); err != nil {
		return fmt.Errorf("slot %d: %w", index, err)
	}

	if _, err := s.f.WriteAt(encodeAccount(a), offset(index)); err != nil {
		return fmt.Errorf("%w: writing slot %d: %w", model.ErrIO, index, err)
	}
	return nil
}

// Clear resets slot index to the empty sentinel.
func (s *Store) Clear(index int) error {
	return s.Write(index, model.Account{})
}

// All reads slots 1..N in order, yielding empty slots as the zero Account.
// Each iteration starts over from slot 1. A read error is yielded once and
// ends the scan.
func (s *Store) All() iter.Seq2[model.Account, error] {
	return func(yield func(model.Account, error) bool) {
		for i := 1; i <= s.slots; i++ {
			a, err := s.Read(i)
			if err != nil {
				yield(model.Account{}, err)
				return
			}
			if !yield(a, nil) {
				return
			}
		}
	}
}

// CopyTo writes every slot, empty ones included, to w byte for byte and
// returns the number of slots copied.
func (s *Store) CopyTo(w io.Writer) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return 0, fmt.Errorf("%w: store is closed", model.ErrIO)
	}

	n, err := io.Copy(w, io.NewSectionReader(s.f, 0, s.Size()))
	if err != nil {
		return int(n / RecordSize), fmt.Errorf("%w: copying slots: %w", model.ErrIO, err)
	}
	if n != s.Size() {
		return int(n / RecordSize), fmt.Errorf("%w: copied %d of %d bytes", model.ErrCorruptFile, n, s.Size())
	}
	return s.slots, nil
}

// Replace closes the slot file, truncates it, fills it with exactly Size()
// bytes read from r and reopens it. It returns the number of slots written.
// The caller is responsible for checking that r holds a full slot array.
func (s *Store) Replace(r io.Reader) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f != nil {
		_ = s.f.Sync()
		_ = s.f.Close()
		s.f = nil
	}

	w, err := os.OpenFile(s.path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		// Nothing has been truncated; try to carry on with the old contents.
		s.f, _ = os.OpenFile(s.path, os.O_RDWR, 0o644)
		return 0, fmt.Errorf("%w: opening store for restore: %w", model.ErrIO, err)
	}

	n, copyErr := io.CopyN(w, r, s.Size())
	syncErr := w.Sync()
	closeErr := w.Close()

	s.f, err = os.OpenFile(s.path, os.O_RDWR, 0o644)
	if err != nil {
		return int(n / RecordSize), fmt.Errorf("%w: reopening store: %w", model.ErrIO, err)
	}

	switch {
	case copyErr != nil:
		return int(n / RecordSize), fmt.Errorf("%w: restored %d of %d bytes: %w", model.ErrIO, n, s.Size(), copyErr)
	case syncErr != nil:
		return s.slots, fmt.Errorf("%w: syncing restored store: %w", model.ErrIO, syncErr)
	case closeErr != nil:
		return s.slots, fmt.Errorf("%w: closing restored store: %w", model.ErrIO, closeErr)
	}
	return s.slots, nil
}

// Close flushes and closes the slot file. Further calls fail with ErrIO.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	_ = s.f.Sync()
	err := s.f.Close()
	s.f = nil
	if err != nil {
		return fmt.Errorf("%w: closing store: %w", model.ErrIO, err)
	}
	return nil
}

func (s *Store) check(index int) error {
	if index < 1 || index > s.slots {
		return fmt.Errorf("%w: slot %d not in 1..%d", model.ErrInvalidRange, index, s.slots)
	}
	if s.f == nil {
		return fmt.Errorf("%w: store is closed", model.ErrIO)
	}
	return nil
}

func offset(index int) int64 {
	return int64(index-1) * RecordSize
}
