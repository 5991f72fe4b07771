package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/slotbank/internal/accounts"
	"github.com/cleared-dev/slotbank/internal/model"
	"github.com/cleared-dev/slotbank/internal/report"
	"github.com/cleared-dev/slotbank/internal/store"
)

func newLedger(t *testing.T, slots int) (*store.Store, *accounts.Service) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "clients.dat"), slots)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, accounts.NewService(st)
}

func seed(t *testing.T, svc *accounts.Service) {
	t.Helper()
	_, err := svc.Create(1, "Jane", "Doe", decimal.NewFromInt(500))
	require.NoError(t, err)
	_, err = svc.Create(7, "Zoë", "Van Der Berg", decimal.RequireFromString("-12.5"))
	require.NoError(t, err)
	_, err = svc.Create(40, "Bob", "Jones", decimal.RequireFromString("1234.56"))
	require.NoError(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, format := range []string{report.FormatText, report.FormatCSV} {
		t.Run(format, func(t *testing.T) {
			src, svc := newLedger(t, 50)
			seed(t, svc)

			var buf bytes.Buffer
			_, err := report.NewEngine(src).Export(&buf, format)
			require.NoError(t, err)

			rows, err := DefaultRegistry().Get(format).Parse(&buf)
			require.NoError(t, err)
			require.Len(t, rows, 3)

			_, dst := newLedger(t, 50)
			res := Import(dst, rows)
			assert.Empty(t, res.Failed)
			assert.Len(t, res.Created, 3)

			for _, n := range []int{1, 7, 40} {
				want, err := svc.Get(n)
				require.NoError(t, err)
				got, err := dst.Get(n)
				require.NoError(t, err)
				assert.Equal(t, want.LastName, got.LastName)
				assert.Equal(t, want.FirstName, got.FirstName)
				assert.True(t, want.Balance.Equal(got.Balance), "account %d balance %s != %s", n, want.Balance, got.Balance)
			}
		})
	}
}

func TestTextParser(t *testing.T) {
	listing := "Acct  Last Name       First Name    Balance\n" +
		"1     Doe             Jane           500.00\n" +
		"\n" +
		"10    Jones           Bob            -12.50\n"

	rows, err := (&TextParser{}).Parse(strings.NewReader(listing))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Number)
	assert.Equal(t, "Doe", rows[0].LastName)
	assert.Equal(t, "Jane", rows[0].FirstName)
	assert.Equal(t, "500", rows[0].Balance.String())
	assert.Equal(t, 2, rows[0].Line)

	assert.Equal(t, 10, rows[1].Number)
	assert.Equal(t, "-12.5", rows[1].Balance.String())
	assert.Equal(t, 4, rows[1].Line)
}

func TestTextParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		listing string
		want    string
	}{
		{"no header", "1     Doe             Jane           500.00\n", "missing header"},
		{"short line", "Acct\n1     Doe\n", "short line"},
		{"bad number", "Acct\nx     Doe             Jane           500.00\n", "parsing account"},
		{"bad balance", "Acct\n1     Doe             Jane           lots\n", "parsing balance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&TextParser{}).Parse(strings.NewReader(tt.listing))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCSVParser(t *testing.T) {
	data := "account,last_name,first_name,balance,transactions\n" +
		"3,Smith,Anna,100.00,1\n" +
		"9,\"O,Brien\",Pat,-5.25,4\n"

	rows, err := (&CSVParser{}).Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{Line: 2, Number: 3, LastName: "Smith", FirstName: "Anna", Balance: rows[0].Balance}, rows[0])
	assert.Equal(t, "100", rows[0].Balance.String())
	assert.Equal(t, "O,Brien", rows[1].LastName)
	assert.Equal(t, 3, rows[1].Line)
}

func TestCSVParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"wrong header", "acct,last,first,bal,tx\n", "unexpected header"},
		{"field count", "account,last_name,first_name,balance,transactions\n1,Doe\n", "reading account CSV"},
		{"bad number", "account,last_name,first_name,balance,transactions\nx,Doe,Jane,1,0\n", "row 2"},
		{"bad balance", "account,last_name,first_name,balance,transactions\n1,Doe,Jane,abc,0\n", "parsing balance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&CSVParser{}).Parse(strings.NewReader(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCSVParser_Empty(t *testing.T) {
	rows, err := (&CSVParser{}).Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestImport_ContinuesPastFailures(t *testing.T) {
	_, svc := newLedger(t, 10)
	_, err := svc.Create(2, "Old", "Owner", decimal.NewFromInt(1))
	require.NoError(t, err)

	rows := []Row{
		{Line: 2, Number: 1, LastName: "Doe", FirstName: "Jane", Balance: decimal.NewFromInt(5)},
		{Line: 3, Number: 2, LastName: "Roe", FirstName: "Rick", Balance: decimal.NewFromInt(5)},
		{Line: 4, Number: 11, LastName: "Far", FirstName: "Away", Balance: decimal.NewFromInt(5)},
		{Line: 5, Number: 3, LastName: "Poe", FirstName: "Ed", Balance: decimal.NewFromInt(5)},
	}
	res := Import(svc, rows)

	require.Len(t, res.Created, 2)
	assert.Equal(t, uint32(1), res.Created[0].Number)
	assert.Equal(t, uint32(3), res.Created[1].Number)

	require.Len(t, res.Failed, 2)
	assert.ErrorIs(t, res.Failed[0], model.ErrAlreadyExists)
	assert.ErrorIs(t, res.Failed[1], model.ErrInvalidRange)
	assert.Contains(t, res.Failed[0].Error(), "line 3 (account 2)")

	owner, err := svc.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "Owner", owner.LastName)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"csv", "text"}, r.Formats())
	assert.NotNil(t, r.Get("CSV"))
	assert.Nil(t, r.Get("xml"))
	assert.Panics(t, func() { r.Register(&CSVParser{}) })
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, "csv", DetectFormat("accounts.CSV"))
	assert.Equal(t, "text", DetectFormat("accounts.txt"))
	assert.Equal(t, "text", DetectFormat("accounts"))
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.csv")
	require.NoError(t, os.WriteFile(path, []byte("account,last_name,first_name,balance,transactions\n5,Doe,Jane,1.00,1\n"), 0o644))

	rows, err := DefaultRegistry().ParseFile(path, "csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].Number)

	_, err = DefaultRegistry().ParseFile(path, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown import format")

	_, err = DefaultRegistry().ParseFile(filepath.Join(t.TempDir(), "missing.csv"), "csv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
