package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcules/student-success/internal/history"
	"github.com/mcules/student-success/internal/report"
)

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		output string
		dsn    string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the prediction history to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if dsn == "" {
				dsn = cfg.History.DSN
			}
			if dsn == "" {
				return NewExitError(ExitCommandError, "prediction history is disabled (history.dsn is empty)")
			}

			store, err := history.Open(dsn)
			if err != nil {
				return WrapExitError(ExitCommandError, "open history", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return WrapExitError(ExitFailure, "list history", err)
			}
			data, err := report.XLSX(entries)
			if err != nil {
				return WrapExitError(ExitFailure, "build workbook", err)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return WrapExitError(ExitFailure, "write workbook", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d predictions to %s\n", len(entries), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", report.XLSXFileName, "output file")
	cmd.Flags().StringVar(&dsn, "dsn", "", "history DSN (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "newest N predictions, 0 for all")
	return cmd
}
