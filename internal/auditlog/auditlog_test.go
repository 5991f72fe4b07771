package auditlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Operation: OpUpdate,
		Account:   42,
		Details:   "delta -600.00, balance -100.00",
	}
}

func logPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "slotbank-audit.csv")
}

func TestAppend_NewFile(t *testing.T) {
	path := logPath(t)
	require.NoError(t, Append(path, []Entry{testEntry()}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Header+"\n2025-01-15T10:30:00Z,update,42,\"delta -600.00, balance -100.00\"\n", string(data))
}

func TestAppend_ExistingFile(t *testing.T) {
	path := logPath(t)
	require.NoError(t, Append(path, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Operation = OpBackup
	e2.Account = 0
	e2.Details = "clients_backup_2025_01_15_10_30_00_abcd1234.dat"
	require.NoError(t, Append(path, []Entry{e2}))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, OpUpdate, entries[0].Operation)
	assert.Equal(t, OpBackup, entries[1].Operation)
	assert.Equal(t, 0, entries[1].Account)
}

func TestRead_RoundTrip(t *testing.T) {
	path := logPath(t)
	original := testEntry()
	require.NoError(t, Append(path, []Entry{original}))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, original.Operation, got.Operation)
	assert.Equal(t, original.Account, got.Account)
	assert.Equal(t, original.Details, got.Details)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(logPath(t))
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_HeaderOnly(t *testing.T) {
	path := logPath(t)
	require.NoError(t, os.WriteFile(path, []byte(Header+"\n"), 0o644))

	entries, err := Read(path)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_BadAccount(t *testing.T) {
	path := logPath(t)
	require.NoError(t, os.WriteFile(path, []byte(Header+"\n2025-01-15T10:30:00Z,create,abc,x\n"), 0o644))

	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestUnmarshalEntry_BadFieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 4 fields")
}

func TestAppend_CreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.csv")
	require.NoError(t, Append(path, []Entry{testEntry()}))

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLogger_Record(t *testing.T) {
	path := logPath(t)
	l := NewLogger(path)
	l.now = func() time.Time { return testTime }

	require.NoError(t, l.Record(OpCreate, 7, "Doe, Jane"))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{Timestamp: entries[0].Timestamp, Operation: OpCreate, Account: 7, Details: "Doe, Jane"}, entries[0])
	assert.True(t, testTime.Equal(entries[0].Timestamp))
}

func TestLogger_Disabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewLogger("").Record(OpDelete, 1, ""))

	var nilLogger *Logger
	require.NoError(t, nilLogger.Record(OpDelete, 1, ""))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}
