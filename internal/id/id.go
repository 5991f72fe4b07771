package id

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	backupMarker    = "_backup_"
	timestampLayout = "2006_01_02_15_04_05"
	suffixLength    = 8
)

// NewSuffix returns 8 random hex characters.
func NewSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
}

// FormatBackupName returns a backup file name for the store at storePath,
// e.g. "clients_backup_2024_01_15_10_30_45_9f86d081.dat" for "clients.dat".
func FormatBackupName(storePath string, t time.Time, suffix string) string {
	base := filepath.Base(storePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".dat"
	}
	return fmt.Sprintf("%s%s%s_%s%s", stem, backupMarker, t.Format(timestampLayout), suffix, ext)
}

// ParseBackupName extracts the timestamp and suffix from a name produced by
// FormatBackupName for the same store. The timestamp is in loc.
func ParseBackupName(storePath, name string, loc *time.Location) (time.Time, string, error) {
	base := filepath.Base(storePath)
	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".dat"
	}
	prefix := strings.TrimSuffix(base, filepath.Ext(base)) + backupMarker

	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
		return time.Time{}, "", fmt.Errorf("not a backup of %s: %q", base, name)
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)

	// rest is "<timestamp>_<suffix>".
	if len(rest) != len(timestampLayout)+1+suffixLength || rest[len(timestampLayout)] != '_' {
		return time.Time{}, "", fmt.Errorf("invalid backup name format: %q", name)
	}

	ts, err := time.ParseInLocation(timestampLayout, rest[:len(timestampLayout)], loc)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid timestamp in backup name %q: %w", name, err)
	}
	return ts, rest[len(timestampLayout)+1:], nil
}
