package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/slotbank/internal/accounts"
	"github.com/cleared-dev/slotbank/internal/auditlog"
	"github.com/cleared-dev/slotbank/internal/backup"
	"github.com/cleared-dev/slotbank/internal/config"
	"github.com/cleared-dev/slotbank/internal/model"
	"github.com/cleared-dev/slotbank/internal/report"
	"github.com/cleared-dev/slotbank/internal/store"
)

const (
	optExport = iota + 1
	optUpdate
	optAdd
	optDelete
	optView
	optSearch
	optHistory
	optSummary
	optBackup
	optRestore
	optExit
)

const menuText = `
1. Export accounts
2. Update account
3. Add account
4. Delete account
5. View account
6. Search by name
7. Transaction history
8. Summary
9. Backup
10. Restore from backup
11. Exit
Enter your choice: `

const (
	listHeader = "%-6s%-16s%-11s%10s\n"
	listRow    = "%-6d%-16s%-11s%10s\n"
	txHeader   = "%-21s%-10s%12s%14s\n"
	txRow      = "%-21s%-10s%12s%14s\n"
	txDate     = "2006-01-02 15:04:05"
)

// Menu drives the numbered interactive menu over one open store.
type Menu struct {
	in       *bufio.Scanner
	out      io.Writer
	log      logrus.FieldLogger
	accounts *accounts.Service
	reports  *report.Engine
	backups  *backup.Manager
	audit    *auditlog.Logger
	export   config.ExportConfig
}

// NewMenu wires the ledger services for st, reading answers from in and
// writing prompts and results to out.
func NewMenu(st *store.Store, cfg *config.Config, in io.Reader, out io.Writer, log logrus.FieldLogger) *Menu {
	return &Menu{
		in:       bufio.NewScanner(in),
		out:      out,
		log:      log,
		accounts: accounts.NewService(st),
		reports:  report.NewEngine(st),
		backups:  backup.NewManager(st, cfg.Backup.Dir),
		audit:    auditlog.NewLogger(cfg.Audit.Path),
		export:   cfg.Export,
	}
}

// Run shows the menu until the user exits or input ends. Failed operations
// are reported and the menu continues.
func (m *Menu) Run() error {
	for {
		fmt.Fprint(m.out, menuText)
		line, err := m.readLine()
		if err != nil {
			fmt.Fprintln(m.out)
			return ignoreEOF(err)
		}

		choice, err := strconv.Atoi(line)
		if err != nil || choice < optExport || choice > optExit {
			fmt.Fprintf(m.out, "Invalid choice %q, enter a number from 1 to %d.\n", line, optExit)
			continue
		}
		if choice == optExit {
			fmt.Fprintln(m.out, "Goodbye.")
			return nil
		}

		if err := m.dispatch(choice); err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(m.out)
				return nil
			}
			if !errors.Is(err, errInput) {
				m.log.WithError(err).WithField("option", choice).Debug("operation failed")
			}
			fmt.Fprintf(m.out, "Error: %v\n", err)
		}
	}
}

func (m *Menu) dispatch(choice int) error {
	switch choice {
	case optExport:
		return m.exportAccounts()
	case optUpdate:
		return m.updateAccount()
	case optAdd:
		return m.addAccount()
	case optDelete:
		return m.deleteAccount()
	case optView:
		return m.viewAccount()
	case optSearch:
		return m.search()
	case optHistory:
		return m.history()
	case optSummary:
		return m.summary()
	case optBackup:
		return m.backup()
	case optRestore:
		return m.restore()
	}
	return fmt.Errorf("%w: unknown option %d", errInput, choice)
}

func (m *Menu) exportAccounts() error {
	f, err := os.Create(m.export.Path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", model.ErrIO, m.export.Path, err)
	}
	n, err := m.reports.Export(f, m.export.Format)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: closing %s: %w", model.ErrIO, m.export.Path, cerr)
	}
	if err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{"path": m.export.Path, "accounts": n}).Debug("exported accounts")
	fmt.Fprintf(m.out, "Exported %d account(s) to %s.\n", n, m.export.Path)
	return nil
}

func (m *Menu) updateAccount() error {
	number, err := m.promptAccount()
	if err != nil {
		return err
	}
	delta, err := m.promptAmount("Amount (+ deposit, - withdraw): ")
	if err != nil {
		return err
	}

	acct, err := m.accounts.Update(number, delta)
	if err != nil {
		return err
	}

	m.record(auditlog.OpUpdate, number, fmt.Sprintf("delta %s, balance %s", delta.StringFixed(2), acct.Balance.StringFixed(2)))
	fmt.Fprintf(m.out, "Account %d updated. New balance: %s\n", number, acct.Balance.StringFixed(2))
	return nil
}

func (m *Menu) addAccount() error {
	number, err := m.promptAccount()
	if err != nil {
		return err
	}
	last, err := m.promptName("Last name: ")
	if err != nil {
		return err
	}
	first, err := m.promptName("First name: ")
	if err != nil {
		return err
	}
	balance, err := m.promptAmount("Initial balance: ")
	if err != nil {
		return err
	}

	acct, err := m.accounts.Create(number, first, last, balance)
	if err != nil {
		return err
	}

	m.record(auditlog.OpCreate, number, fmt.Sprintf("%s, %s; balance %s", acct.LastName, acct.FirstName, acct.Balance.StringFixed(2)))
	fmt.Fprintf(m.out, "Account %d created for %s %s.\n", number, acct.FirstName, acct.LastName)
	return nil
}

func (m *Menu) deleteAccount() error {
	number, err := m.promptAccount()
	if err != nil {
		return err
	}
	if err := m.accounts.Delete(number); err != nil {
		return err
	}

	m.record(auditlog.OpDelete, number, "")
	fmt.Fprintf(m.out, "Account %d deleted.\n", number)
	return nil
}

func (m *Menu) viewAccount() error {
	number, err := m.promptAccount()
	if err != nil {
		return err
	}
	acct, err := m.accounts.Get(number)
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "Account:      %d\n", acct.Number)
	fmt.Fprintf(m.out, "Last name:    %s\n", acct.LastName)
	fmt.Fprintf(m.out, "First name:   %s\n", acct.FirstName)
	fmt.Fprintf(m.out, "Balance:      %s\n", acct.Balance.StringFixed(2))
	fmt.Fprintf(m.out, "Transactions: %d\n", acct.TransactionCount())
	return nil
}

func (m *Menu) search() error {
	term, err := m.prompt("Name contains: ")
	if err != nil {
		return err
	}
	if term == "" {
		return fmt.Errorf("%w: search term must not be empty", errInput)
	}

	found, err := m.reports.SearchByName(term)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintf(m.out, "No accounts match %q.\n", term)
		return nil
	}
	m.printAccounts(found)
	return nil
}

func (m *Menu) history() error {
	number, err := m.promptAccount()
	if err != nil {
		return err
	}
	txs, err := m.accounts.History(number)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Fprintf(m.out, "Account %d has no transactions.\n", number)
		return nil
	}

	fmt.Fprintf(m.out, txHeader, "Date", "Type", "Amount", "Balance")
	for _, tx := range txs {
		fmt.Fprintf(m.out, txRow, tx.Date.Format(txDate), tx.Type, tx.Amount.StringFixed(2), tx.BalanceAfter.StringFixed(2))
	}
	return nil
}

func (m *Menu) summary() error {
	sum, err := m.reports.Summary()
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "Active accounts:  %d of %d (%d available)\n", sum.ActiveAccounts, sum.Capacity, sum.Available)
	fmt.Fprintf(m.out, "Total balance:    %s\n", sum.TotalBalance.StringFixed(2))
	if !sum.HasAccounts() {
		return nil
	}
	fmt.Fprintf(m.out, "Average balance:  %s\n", sum.Average.StringFixed(2))
	fmt.Fprintf(m.out, "Highest balance:  %s (account %d)\n", sum.HighestBalance.StringFixed(2), sum.HighestAccount)
	fmt.Fprintf(m.out, "Lowest balance:   %s (account %d)\n", sum.LowestBalance.StringFixed(2), sum.LowestAccount)
	return nil
}

func (m *Menu) backup() error {
	res, err := m.backups.Backup()
	if err != nil {
		return err
	}

	m.record(auditlog.OpBackup, 0, res.Path)
	m.log.WithFields(logrus.Fields{"path": res.Path, "slots": res.Slots}).Debug("backup written")
	fmt.Fprintf(m.out, "Backed up %d slots to %s.\n", res.Slots, res.Path)
	return nil
}

func (m *Menu) restore() error {
	list, err := m.backups.List()
	if err != nil {
		return err
	}
	if len(list) > 0 {
		fmt.Fprintln(m.out, "Available backups (newest first):")
		for _, b := range list {
			fmt.Fprintf(m.out, "  %s\n", b.Path)
		}
	}

	source, err := m.prompt("Backup file: ")
	if err != nil {
		return err
	}

	res, err := m.backups.Restore(source, m.confirmRestore)
	if errors.Is(err, backup.ErrRestoreCancelled) {
		fmt.Fprintln(m.out, "Restore cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	m.record(auditlog.OpRestore, 0, res.Path)
	m.log.WithFields(logrus.Fields{"path": res.Path, "slots": res.Slots}).Debug("store restored")
	fmt.Fprintf(m.out, "Restored %d slots from %s.\n", res.Slots, res.Path)
	return nil
}

func (m *Menu) confirmRestore(source string) (bool, error) {
	for {
		answer, err := m.prompt(fmt.Sprintf("This overwrites every account with the contents of %s. Continue? (y/n): ", source))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(m.out, "Please answer y or n.")
	}
}

func (m *Menu) printAccounts(accts []model.Account) {
	fmt.Fprintf(m.out, listHeader, "Acct", "Last Name", "First Name", "Balance")
	for _, a := range accts {
		fmt.Fprintf(m.out, listRow, a.Number, a.LastName, a.FirstName, a.Balance.StringFixed(2))
	}
}

// record appends to the audit log. A failure is logged, not returned: the
// ledger change itself has already been saved.
func (m *Menu) record(op auditlog.Operation, account int, details string) {
	if err := m.audit.Record(op, account, details); err != nil {
		m.log.WithError(err).WithField("operation", op).Warn("audit log append failed")
	}
}

var errInput = errors.New("invalid input")

func (m *Menu) readLine() (string, error) {
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	return m.readLine()
}

func (m *Menu) promptAccount() (int, error) {
	s, err := m.prompt(fmt.Sprintf("Account number (1-%d): ", m.accounts.Capacity()))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an account number", errInput, s)
	}
	return n, nil
}

func (m *Menu) promptAmount(label string) (decimal.Decimal, error) {
	s, err := m.prompt(label)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not an amount", errInput, s)
	}
	return d, nil
}

func (m *Menu) promptName(label string) (string, error) {
	s, err := m.prompt(label)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%w: name must not be empty", errInput)
	}
	return s, nil
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
