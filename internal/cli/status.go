package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fabrahaingo/CashCrawler/internal/archive"
	"github.com/fabrahaingo/CashCrawler/internal/config"
)

// ArchiveStatus describes one on-disk archive for the status command.
type ArchiveStatus struct {
	Bank       string `json:"bank"`
	Account    string `json:"account"`
	Anchor     string `json:"anchor"`
	Rows       int    `json:"rows"`
	ModifiedAt string `json:"modified_at"`
	FreshToday bool   `json:"fresh_today"`
}

// NewStatusCommand creates the status command. It is read-only and never
// touches the network: it reports what the archive directory holds and
// whether the freshness guard would consider each file reconciled today.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show on-disk archive state per account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			statuses, err := collectStatuses(cfg.ArchiveDir, time.Now())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to scan archives", err)
			}

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			if rootOpts.Format == "json" {
				return formatter.Success(statuses)
			}
			if len(statuses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no archives yet")
				return nil
			}
			for _, st := range statuses {
				marker := " "
				if st.FreshToday {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s  since %s  %d rows  (last written %s)\n",
					marker, st.Bank, st.Account, st.Anchor, st.Rows, st.ModifiedAt)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\n* reconciled today")
			return nil
		},
	}
	return cmd
}

// collectStatuses walks <root>/<bank>/<account>/ looking for anchor-named
// archive files.
func collectStatuses(root string, now time.Time) ([]ArchiveStatus, error) {
	var statuses []ArchiveStatus

	banks, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, bankEntry := range banks {
		if !bankEntry.IsDir() {
			continue
		}
		accountsDir := filepath.Join(root, bankEntry.Name())
		accounts, err := os.ReadDir(accountsDir)
		if err != nil {
			return nil, err
		}
		for _, acctEntry := range accounts {
			if !acctEntry.IsDir() {
				continue
			}
			existing, err := archive.FindExisting(filepath.Join(accountsDir, acctEntry.Name()))
			if err != nil || existing == nil {
				continue
			}
			info, err := os.Stat(existing.Path)
			if err != nil {
				continue
			}
			content, err := archive.Load(existing.Path)
			if err != nil {
				continue
			}
			statuses = append(statuses, ArchiveStatus{
				Bank:       bankEntry.Name(),
				Account:    acctEntry.Name(),
				Anchor:     existing.Anchor.Format("2006-01-02"),
				Rows:       countRows(content),
				ModifiedAt: info.ModTime().Format("2006-01-02 15:04"),
				FreshToday: sameDay(info.ModTime(), now),
			})
		}
	}
	return statuses, nil
}

// countRows counts non-empty lines minus the header.
func countRows(content string) int {
	rows := 0
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			rows++
		}
	}
	if rows > 0 {
		rows-- // header
	}
	return rows
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
