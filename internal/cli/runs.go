package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fabrahaingo/CashCrawler/internal/config"
	"github.com/fabrahaingo/CashCrawler/internal/store"
)

// NewRunsCommand creates the runs command, listing recent entries from the
// run ledger.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent reconciliation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			ledger, err := store.Open(cfg.LedgerPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open run ledger", err)
			}
			defer ledger.Close()

			runs, err := ledger.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read run ledger", err)
			}

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			if rootOpts.Format == "json" {
				return formatter.Success(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded yet")
				return nil
			}
			for _, run := range runs {
				line := fmt.Sprintf("%s  %-10s %-9s %d/%d archived",
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.BankID, run.Outcome, run.Succeeded, run.Total)
				if run.Error != "" {
					line += "  " + run.Error
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")
	return cmd
}
