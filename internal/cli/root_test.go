package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabrahaingo/CashCrawler/internal/reconcile"
)

// TestRootCommand_RejectsInvalidFormat verifies the format flag is validated
// before any subcommand runs.
func TestRootCommand_RejectsInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"status", "--format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

// TestGetExitCode maps errors to exit codes.
func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad config")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
}

// TestRenderSummary covers the text renderings of each run shape.
func TestRenderSummary(t *testing.T) {
	fresh := reconcile.Summary{BankID: "bnp", Fresh: true, Total: 3}
	assert.Contains(t, renderSummary(fresh), "already reconciled today")

	dry := reconcile.Summary{BankID: "bnp", DryRun: true, Reusable: true, Total: 3}
	assert.Contains(t, renderSummary(dry), "dry run")

	done := reconcile.Summary{BankID: "bnp", Total: 3, Succeeded: 2, Unavailable: 1}
	got := renderSummary(done)
	assert.Contains(t, got, "2/3 accounts archived")
	assert.Contains(t, got, "1 unavailable")
}
