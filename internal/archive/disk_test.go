package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	marchStart = time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	janStart   = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
)

// TestSave_NewArchive verifies the first save anchors at the window start.
func TestSave_NewArchive(t *testing.T) {
	root := t.TempDir()

	path, err := Save(root, "bnp", "Compte Courant", marchStart, "h\nrow\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "bnp", "compte-courant", "history-from-20230301.csv"), path)

	content, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "h\nrow\n", content)
}

// TestSave_KeepsAnchorForLaterWindow verifies a later window start never
// moves the anchor forward.
func TestSave_KeepsAnchorForLaterWindow(t *testing.T) {
	root := t.TempDir()

	first, err := Save(root, "bnp", "Compte", janStart, "h\na\n")
	require.NoError(t, err)

	second, err := Save(root, "bnp", "Compte", marchStart, "h\na\nb\n")
	require.NoError(t, err)
	assert.Equal(t, first, second, "anchor must stay at the earliest-known boundary")
}

// TestSave_MovesAnchorEarlier verifies an earlier window start renames the
// archive and leaves exactly one file behind.
func TestSave_MovesAnchorEarlier(t *testing.T) {
	root := t.TempDir()

	_, err := Save(root, "bnp", "Compte", marchStart, "h\na\n")
	require.NoError(t, err)

	path, err := Save(root, "bnp", "Compte", janStart, "h\na\nb\n")
	require.NoError(t, err)
	assert.Contains(t, path, "history-from-20220101.csv")

	dir := AccountDir(root, "bnp", "Compte")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "history-from-20220101.csv", entries[0].Name())
}

// TestFindExisting_MissingDir verifies a never-archived account reports no
// archive and no error.
func TestFindExisting_MissingDir(t *testing.T) {
	existing, err := FindExisting(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, existing)
}

// TestFindExisting_PicksEarliestAnchor covers leftovers from interrupted
// earlier runs.
func TestFindExisting_PicksEarliestAnchor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history-from-20230301.csv"), []byte("h\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history-from-20220101.csv"), []byte("h\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	existing, err := FindExisting(dir)
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, "history-from-20220101.csv", filepath.Base(existing.Path))
	assert.True(t, existing.Anchor.Equal(janStart))
}
