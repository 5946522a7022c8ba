// Package cli builds the cashcrawler command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fabrahaingo/CashCrawler/internal/bank"
	"github.com/fabrahaingo/CashCrawler/internal/bank/bnp"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cashcrawler CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cashcrawler",
		Short: "CashCrawler - accumulate your bank transaction history locally",
		Long: `CashCrawler turns a bank's bounded export window into an unbounded local
archive: every run reconciles remote download requests against today's
window, fetches what is ready, and merges it into per-account CSV archives.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			registerConnectors()
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "cashcrawler.yaml", "path to config file")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

// registerConnectors wires every concrete bank connector into the registry.
// Adding a bank source means adding one line here plus its package.
func registerConnectors() {
	bank.Register("bnp", func(cfg bank.SourceConfig) (bank.Connector, error) {
		return bnp.New(cfg)
	})
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
