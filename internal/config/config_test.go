package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = "/var/lib/bank/clients.dat"
	cfg.Store.Slots = 250
	cfg.Backup.Dir = "backups"
	cfg.Export.Format = "csv"
	cfg.Audit.Path = ""
	cfg.Log.Level = "debug"

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "clients.dat", cfg.Store.Path)
	assert.Equal(t, 100, cfg.Store.Slots)
	assert.Equal(t, ".", cfg.Backup.Dir)
	assert.Equal(t, "accounts.txt", cfg.Export.Path)
	assert.Equal(t, "text", cfg.Export.Format)
	assert.Equal(t, "slotbank-audit.csv", cfg.Audit.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("store:\n  slots: 20\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Store.Slots)
	assert.Equal(t, "clients.dat", cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero slots", "store:\n  slots: 0\n"},
		{"empty path", "store:\n  path: \"\"\n"},
		{"bad format", "export:\n  format: xml\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"not yaml", "store: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := Load(path)
			assert.Error(t, err)

			_, err = LoadOrDefault(path)
			assert.Error(t, err)
		})
	}
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "path: clients.dat")
	assert.Contains(t, contents, "slots: 100")
	assert.Contains(t, contents, "format: text")
	assert.Contains(t, contents, "level: warn")
}

func TestResolvePaths(t *testing.T) {
	cfg := Default()
	cfg.Export.Path = "/tmp/out.csv"
	cfg.Audit.Path = ""
	cfg.ResolvePaths(filepath.Join("srv", "bank"))

	assert.Equal(t, filepath.Join("srv", "bank", "clients.dat"), cfg.Store.Path)
	assert.Equal(t, filepath.Join("srv", "bank"), cfg.Backup.Dir)
	assert.Equal(t, "/tmp/out.csv", cfg.Export.Path)
	assert.Equal(t, "", cfg.Audit.Path)
}
