package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/slotbank/internal/accounts"
	"github.com/cleared-dev/slotbank/internal/auditlog"
	"github.com/cleared-dev/slotbank/internal/importer"
)

func newImportCommand(configPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create accounts from a text or CSV account listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if format == "" {
				format = importer.DetectFormat(path)
			}

			rows, err := importer.DefaultRegistry().ParseFile(path, format)
			if err != nil {
				return err
			}

			l, err := openLedger(cmd, *configPath)
			if err != nil {
				return err
			}
			defer l.close()

			res := importer.Import(accounts.NewService(l.store), rows)

			audit := auditlog.NewLogger(l.cfg.Audit.Path)
			for _, a := range res.Created {
				if err := audit.Record(auditlog.OpCreate, int(a.Number), "imported from "+path); err != nil {
					l.log.WithError(err).Warn("audit log append failed")
				}
			}

			out := cmd.OutOrStdout()
			for _, f := range res.Failed {
				fmt.Fprintf(out, "Skipped %v\n", f)
			}
			fmt.Fprintf(out, "Imported %d of %d account(s) from %s\n", len(res.Created), len(rows), path)

			if len(res.Failed) > 0 {
				return fmt.Errorf("%d account(s) not imported", len(res.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "listing format: text or csv (default: from file extension)")

	return cmd
}
