package reconcile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabrahaingo/CashCrawler/internal/archive"
	"github.com/fabrahaingo/CashCrawler/internal/bank"
)

func writeArchiveFile(t *testing.T, root, bankID string, acct bank.Account, modTime time.Time) string {
	t.Helper()
	dir := archive.AccountDir(root, bankID, acct.Name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "history-from-20231022.csv")
	require.NoError(t, os.WriteFile(path, []byte("h\nrow\n"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

// TestArchivesFreshToday_AllFresh verifies files written today short-circuit
// the run.
func TestArchivesFreshToday_AllFresh(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	writeArchiveFile(t, root, "bnp", acctA, now)
	writeArchiveFile(t, root, "bnp", acctB, now)

	assert.True(t, ArchivesFreshToday(root, "bnp", []bank.Account{acctA, acctB}, now))
}

// TestArchivesFreshToday_OneStale verifies a single yesterday-file forces a
// run.
func TestArchivesFreshToday_OneStale(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	writeArchiveFile(t, root, "bnp", acctA, now)
	writeArchiveFile(t, root, "bnp", acctB, now.Add(-24*time.Hour))

	assert.False(t, ArchivesFreshToday(root, "bnp", []bank.Account{acctA, acctB}, now))
}

// TestArchivesFreshToday_MissingFile verifies an account with no archive at
// all forces a run.
func TestArchivesFreshToday_MissingFile(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	writeArchiveFile(t, root, "bnp", acctA, now)

	assert.False(t, ArchivesFreshToday(root, "bnp", []bank.Account{acctA, acctB}, now))
}

// TestArchivesFreshToday_NoAccounts is trivially fresh; the engine never
// reaches this state with a real login but the guard must not panic.
func TestArchivesFreshToday_NoAccounts(t *testing.T) {
	assert.True(t, ArchivesFreshToday(t.TempDir(), "bnp", nil, time.Now()))
}
