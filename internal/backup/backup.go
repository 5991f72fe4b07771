// Package backup copies the whole slot file to timestamped backup files and
// restores it from them.
//
// Restore is destructive and not transactional: the primary file is truncated
// before the backup's slots are written, so an interruption in between loses
// the primary's data.
package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cleared-dev/slotbank/internal/id"
	"github.com/cleared-dev/slotbank/internal/model"
)

// ErrRestoreCancelled is returned when the restore confirmation is declined.
var ErrRestoreCancelled = errors.New("restore cancelled")

// SlotFile is the raw, whole-file view of a slot store.
type SlotFile interface {
	Path() string
	Slots() int
	Size() int64
	CopyTo(w io.Writer) (int, error)
	Replace(r io.Reader) (int, error)
}

// ConfirmFunc is asked before a restore overwrites the store. Returning false
// cancels the restore.
type ConfirmFunc func(source string) (bool, error)

// Result describes a completed backup or restore.
type Result struct {
	Path  string
	Slots int
	At    time.Time
}

// Manager creates and restores backups of one store.
type Manager struct {
	store     SlotFile
	dir       string
	now       func() time.Time
	newSuffix func() string
}

// NewManager creates a Manager writing backups into dir.
func NewManager(store SlotFile, dir string) *Manager {
	if dir == "" {
		dir = "."
	}
	return &Manager{store: store, dir: dir, now: time.Now, newSuffix: id.NewSuffix}
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Backup copies every slot, empty ones included, into a new backup file.
func (m *Manager) Backup() (Result, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: creating backup dir: %w", model.ErrIO, err)
	}

	at := m.now()
	path := filepath.Join(m.dir, id.FormatBackupName(m.store.Path(), at, m.newSuffix()))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Result{}, fmt.Errorf("%w: creating backup file: %w", model.ErrIO, err)
	}

	n, err := m.store.CopyTo(f)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return Result{}, fmt.Errorf("writing backup %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return Result{}, fmt.Errorf("%w: syncing backup: %w", model.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return Result{}, fmt.Errorf("%w: closing backup: %w", model.ErrIO, err)
	}

	return Result{Path: path, Slots: n, At: at}, nil
}

// Restore replaces the store's slots with those of the backup at source,
// after confirm agrees. A relative source is looked up in the backup
// directory when it does not exist as given.
func (m *Manager) Restore(source string, confirm ConfirmFunc) (Result, error) {
	path, err := m.resolve(source)
	if err != nil {
		return Result{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: opening backup: %w", model.ErrIO, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("%w: checking backup: %w", model.ErrIO, err)
	}
	if primary, err := os.Stat(m.store.Path()); err == nil && os.SameFile(stat, primary) {
		return Result{}, fmt.Errorf("%w: %s is the store itself, not a backup", model.ErrInvalidRange, path)
	}
	if stat.IsDir() || stat.Size() != m.store.Size() {
		return Result{}, fmt.Errorf("%w: backup %s is %d bytes, want %d",
			model.ErrCorruptFile, path, stat.Size(), m.store.Size())
	}

	ok, err := confirm(path)
	if err != nil {
		return Result{}, fmt.Errorf("confirming restore: %w", err)
	}
	if !ok {
		return Result{}, ErrRestoreCancelled
	}

	n, err := m.store.Replace(f)
	if err != nil {
		return Result{Path: path, Slots: n}, fmt.Errorf("restoring from %s: %w", path, err)
	}
	return Result{Path: path, Slots: n, At: m.now()}, nil
}

// List returns the backups of this store in the backup directory, newest
// first.
func (m *Manager) List() ([]Result, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: listing backups: %w", model.ErrIO, err)
	}

	var out []Result
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		at, _, err := id.ParseBackupName(m.store.Path(), e.Name(), time.Local)
		if err != nil {
			continue
		}
		out = append(out, Result{Path: filepath.Join(m.dir, e.Name()), Slots: m.store.Slots(), At: at})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].Path > out[j].Path
		}
		return out[i].At.After(out[j].At)
	})
	return out, nil
}

func (m *Manager) resolve(source string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("%w: no backup file given", model.ErrNotFound)
	}
	candidates := []string{source}
	if !filepath.IsAbs(source) {
		candidates = append(candidates, filepath.Join(m.dir, source))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: backup %s", model.ErrNotFound, source)
}
