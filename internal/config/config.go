package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FileName is the default configuration file name.
const FileName = "slotbank.yaml"

// DefaultSlots is the capacity of a new store.
const DefaultSlots = 100

// Config represents the top-level slotbank.yaml configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Backup BackupConfig `yaml:"backup"`
	Export ExportConfig `yaml:"export"`
	Audit  AuditConfig  `yaml:"audit"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig locates the slot file and fixes its capacity.
type StoreConfig struct {
	Path  string `yaml:"path"`
	Slots int    `yaml:"slots"`
}

// BackupConfig controls where backups are written.
type BackupConfig struct {
	Dir string `yaml:"dir"`
}

// ExportConfig controls the account listing export.
type ExportConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // "text" or "csv"
}

// AuditConfig locates the audit log. An empty path disables it.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// LogConfig sets the diagnostic log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a slotbank.yaml file from disk. Fields missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the defaults for a new ledger.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Path:  "clients.dat",
			Slots: DefaultSlots,
		},
		Backup: BackupConfig{
			Dir: ".",
		},
		Export: ExportConfig{
			Path:   "accounts.txt",
			Format: "text",
		},
		Audit: AuditConfig{
			Path: "slotbank-audit.csv",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}
	if c.Store.Slots < 1 {
		return fmt.Errorf("store.slots must be at least 1, got %d", c.Store.Slots)
	}
	switch c.Export.Format {
	case "", "text", "csv":
	default:
		return fmt.Errorf("export.format must be text or csv, got %q", c.Export.Format)
	}
	if c.Log.Level != "" {
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}

// ResolvePaths makes every relative file path in c relative to base, usually
// the directory holding the config file.
func (c *Config) ResolvePaths(base string) {
	for _, p := range []*string{&c.Store.Path, &c.Backup.Dir, &c.Export.Path, &c.Audit.Path} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		*p = filepath.Join(base, *p)
	}
}
