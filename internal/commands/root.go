package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/slotbank/internal/buildinfo"
	"github.com/cleared-dev/slotbank/internal/config"
	"github.com/cleared-dev/slotbank/internal/store"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
// Run without a subcommand it opens the store and starts the interactive menu.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "slotbank",
		Short:   "Fixed-slot bank account ledger",
		Version: buildinfo.String(),
		Args:    cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, configPath)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.FileName, "path to config file")
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newImportCommand(&configPath))

	return rootCmd
}

func runMenu(cmd *cobra.Command, configPath string) error {
	l, err := openLedger(cmd, configPath)
	if err != nil {
		return err
	}
	defer l.close()

	return NewMenu(l.store, l.cfg, cmd.InOrStdin(), cmd.OutOrStdout(), l.log).Run()
}

// ledger is an open store with the config and logger it was opened with.
type ledger struct {
	cfg   *config.Config
	store *store.Store
	log   *logrus.Logger
}

func openLedger(cmd *cobra.Command, configPath string) (*ledger, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ResolvePaths(filepath.Dir(configPath))

	log := newLogger(cfg.Log.Level, cmd.ErrOrStderr())

	st, err := store.Open(cfg.Store.Path, cfg.Store.Slots)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	log.WithFields(logrus.Fields{"path": cfg.Store.Path, "slots": cfg.Store.Slots}).Debug("store opened")

	return &ledger{cfg: cfg, store: st, log: log}, nil
}

func (l *ledger) close() {
	if err := l.store.Close(); err != nil {
		l.log.WithError(err).Warn("closing store")
	}
}

func newLogger(level string, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	log.SetLevel(lvl)
	return log
}
