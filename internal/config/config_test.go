package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cashcrawler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoad_Defaults verifies a minimal file gets every default.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
banks:
  - id: bnp
    base_url: https://clients.bnp.example/api
`))
	require.NoError(t, err)

	assert.Equal(t, DefaultArchiveDir, cfg.ArchiveDir)
	assert.Equal(t, DefaultLedgerPath, cfg.LedgerPath)
	assert.Equal(t, DefaultLookbackDays, cfg.LookbackDays)
	assert.Equal(t, 8*time.Second, cfg.PreparationWait.Std())
	assert.Equal(t, 1200*time.Millisecond, cfg.CreatePause.Std())
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout.Std())
}

// TestLoad_Overrides verifies explicit values survive.
func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
archive_dir: /data/tx
lookback_days: 30
preparation_wait: 2s
create_pause: 250ms
banks:
  - id: bnp
    base_url: https://clients.bnp.example/api
`))
	require.NoError(t, err)

	assert.Equal(t, "/data/tx", cfg.ArchiveDir)
	assert.Equal(t, 30, cfg.LookbackDays)
	assert.Equal(t, 2*time.Second, cfg.PreparationWait.Std())
	assert.Equal(t, 250*time.Millisecond, cfg.CreatePause.Std())
}

// TestLoad_InvalidDuration verifies bad duration scalars fail loudly.
func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, `
preparation_wait: soon
banks:
  - id: bnp
    base_url: https://x
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

// TestValidate covers the fail-fast cases.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"no banks", `archive_dir: x`, "at least one bank"},
		{"missing id", "banks:\n  - base_url: https://x\n", "missing an id"},
		{"missing base_url", "banks:\n  - id: bnp\n", "missing base_url"},
		{"duplicate bank", "banks:\n  - id: bnp\n    base_url: https://x\n  - id: bnp\n    base_url: https://y\n", "configured twice"},
		{"negative lookback", "lookback_days: -5\nbanks:\n  - id: bnp\n    base_url: https://x\n", "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestBank_CredentialEnv verifies the default and explicit env names.
func TestBank_CredentialEnv(t *testing.T) {
	b := Bank{ID: "bnp"}
	t.Setenv("CASHCRAWLER_BNP_CLIENT_NUMBER", "12345678")
	t.Setenv("CASHCRAWLER_BNP_CLIENT_SECRET", "s3cret")
	assert.Equal(t, "12345678", b.ClientNumber())
	assert.Equal(t, "s3cret", b.ClientSecret())

	custom := Bank{ID: "bnp", ClientNumberEnv: "MY_NUMBER"}
	t.Setenv("MY_NUMBER", "87654321")
	assert.Equal(t, "87654321", custom.ClientNumber())
}
