package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/slotbank/internal/config"
	"github.com/cleared-dev/slotbank/internal/store"
)

func newInitCommand() *cobra.Command {
	var slots int

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a config file and an empty store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			storePath, err := runInit(absDir, slots)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger at %s (%d slots)\n", storePath, slots)
			return nil
		},
	}

	cmd.Flags().IntVar(&slots, "slots", config.DefaultSlots, "number of account slots")

	return cmd
}

func runInit(dir string, slots int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return "", fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	cfg := config.Default()
	cfg.Store.Slots = slots
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	// Open creates the file of empty slots, or checks an existing one.
	storePath := filepath.Join(dir, cfg.Store.Path)
	st, err := store.Open(storePath, cfg.Store.Slots)
	if err != nil {
		return "", fmt.Errorf("creating store: %w", err)
	}
	if err := st.Close(); err != nil {
		return "", fmt.Errorf("closing store: %w", err)
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return storePath, nil
}
