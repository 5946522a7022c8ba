package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fabrahaingo/CashCrawler/internal/bank"
	"github.com/fabrahaingo/CashCrawler/internal/config"
	"github.com/fabrahaingo/CashCrawler/internal/reconcile"
	"github.com/fabrahaingo/CashCrawler/internal/store"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	DryRun  bool
	Timeout time.Duration
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile and archive transactions for every configured bank",
		Long: `Run one reconciliation pass per configured bank.

For each bank: log in, short-circuit if every account's archive was already
written today, reconcile the remote download requests against today's
window, fetch ready exports, and merge them into the local archives.

Example:
  cashcrawler sync --config cashcrawler.yaml
  cashcrawler sync --dry-run --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "inspect remote state without creating requests or writing archives")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "overall deadline for the whole run")

	return cmd
}

func runSync(cmd *cobra.Command, opts *SyncOptions) error {
	logger := newLogger(opts.Verbose)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	ledger, err := store.Open(cfg.LedgerPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run ledger", err)
	}
	defer func() {
		if closeErr := ledger.Close(); closeErr != nil {
			logger.Error("error closing run ledger", "error", closeErr)
		}
	}()

	// A caller-level deadline is the only cancellation mechanism: remote
	// requests created before it fires are not rolled back.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithTimeout(parentCtx, opts.Timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, aborting", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	var summaries []reconcile.Summary
	for _, bankCfg := range cfg.Banks {
		summary, err := syncBank(ctx, cfg, bankCfg, opts.DryRun, ledger, logger)
		if err != nil {
			_ = formatter.Error("SYNC_FAILED", err.Error(), nil)
			return WrapExitError(ExitFailure, fmt.Sprintf("sync failed for bank %s", bankCfg.ID), err)
		}
		summaries = append(summaries, summary)
	}

	if opts.Format == "json" {
		return formatter.Success(summaries)
	}
	for _, s := range summaries {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(s))
	}
	return nil
}

func syncBank(ctx context.Context, cfg *config.Config, bankCfg config.Bank, dryRun bool, ledger *store.Store, logger *slog.Logger) (reconcile.Summary, error) {
	conn, err := bank.Open(bank.SourceConfig{
		ID:           bankCfg.ID,
		BaseURL:      bankCfg.BaseURL,
		HTTPTimeout:  cfg.HTTPTimeout.Std(),
		ClientNumber: bankCfg.ClientNumber(),
		ClientSecret: bankCfg.ClientSecret(),
	})
	if err != nil {
		return reconcile.Summary{}, WrapExitError(ExitCommandError, "failed to open connector", err)
	}

	engine, err := reconcile.New(reconcile.Config{
		BankID:          bankCfg.ID,
		ArchiveRoot:     cfg.ArchiveDir,
		LookbackDays:    cfg.LookbackDays,
		PreparationWait: cfg.PreparationWait.Std(),
		CreatePause:     cfg.CreatePause.Std(),
		DryRun:          dryRun,
	}, conn, ledger, logger)
	if err != nil {
		return reconcile.Summary{}, WrapExitError(ExitCommandError, "failed to build engine", err)
	}

	return engine.Run(ctx)
}

func renderSummary(s reconcile.Summary) string {
	switch {
	case s.Fresh:
		return fmt.Sprintf("%s: archives already reconciled today (%d accounts)", s.BankID, s.Total)
	case s.DryRun && s.Reusable:
		return fmt.Sprintf("%s: dry run - existing requests cover today's window for all %d accounts", s.BankID, s.Total)
	case s.DryRun:
		return fmt.Sprintf("%s: dry run - would recreate download requests for all %d accounts", s.BankID, s.Total)
	default:
		return fmt.Sprintf("%s: %d/%d accounts archived (%d unavailable, %d failed)",
			s.BankID, s.Succeeded, s.Total, s.Unavailable, s.Failed)
	}
}

// newLogger configures slog on stderr, debug level when verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
