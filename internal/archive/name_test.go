package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFileName_RoundTrip verifies anchor dates survive the filename encoding.
func TestFileName_RoundTrip(t *testing.T) {
	anchor := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	name := FileName(anchor)
	assert.Equal(t, "history-from-20220101.csv", name)

	parsed, ok := ParseAnchor(name)
	require.True(t, ok)
	assert.True(t, parsed.Equal(anchor))
}

// TestParseAnchor_Rejects verifies non-archive names are ignored.
func TestParseAnchor_Rejects(t *testing.T) {
	for _, name := range []string{
		"history-from-2022011.csv",  // 7 digits
		"history-from-20220101.txt", // wrong extension
		"history-from-20221301.csv", // month 13
		"notes.csv",
		"history-from-20220101.csv.bak",
	} {
		_, ok := ParseAnchor(name)
		assert.False(t, ok, "name %q should not parse", name)
	}
}

// TestSanitizeAccountName covers the label forms banks actually emit.
func TestSanitizeAccountName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Compte de chèques", "compte-de-ch-ques"},
		{"LIVRET A ****1234", "livret-a-1234"},
		{"  Joint / M. et Mme  ", "joint-m-et-mme"},
		{"simple", "simple"},
		{"already-safe_name", "already-safe_name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeAccountName(tt.in), "input %q", tt.in)
	}
}

// TestSanitizeAccountName_Stable verifies label casing drift maps to the
// same directory.
func TestSanitizeAccountName_Stable(t *testing.T) {
	assert.Equal(t, SanitizeAccountName("Compte Courant"), SanitizeAccountName("COMPTE COURANT"))
}
