package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AccountDir returns the directory holding one account's archive:
// <root>/<bankID>/<sanitized-account-name>.
func AccountDir(root, bankID, accountName string) string {
	return filepath.Join(root, bankID, SanitizeAccountName(accountName))
}

// Existing describes an archive file found on disk.
type Existing struct {
	Path   string
	Anchor time.Time
}

// FindExisting locates the account's archive file, if any.
//
// At most one archive should exist per account; if earlier runs left more
// than one behind, the one with the earliest anchor wins, since the anchor
// is defined as the earliest window start ever merged.
func FindExisting(dir string) (*Existing, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan archive dir: %w", err)
	}
	var found *Existing
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		anchor, ok := ParseAnchor(entry.Name())
		if !ok {
			continue
		}
		if found == nil || anchor.Before(found.Anchor) {
			found = &Existing{Path: filepath.Join(dir, entry.Name()), Anchor: anchor}
		}
	}
	return found, nil
}

// Load reads an archive file's content.
func Load(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read archive: %w", err)
	}
	return string(raw), nil
}

// Save writes merged content for one account and returns the path written.
//
// The anchor encoded in the filename is monotonically non-increasing: an
// existing archive keeps its anchor unless the current window starts
// earlier, in which case the file is renamed to the earlier boundary. With
// no existing archive the window start becomes the anchor.
func Save(root, bankID, accountName string, windowStart time.Time, merged string) (string, error) {
	dir := AccountDir(root, bankID, accountName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	existing, err := FindExisting(dir)
	if err != nil {
		return "", err
	}

	anchor := windowStart
	if existing != nil && existing.Anchor.Before(anchor) {
		anchor = existing.Anchor
	}

	path := filepath.Join(dir, FileName(anchor))
	if err := os.WriteFile(path, []byte(merged), 0o644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}

	// Anchor moved earlier: drop the file under the old name so exactly one
	// archive remains per account.
	if existing != nil && existing.Path != path {
		if err := os.Remove(existing.Path); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("remove superseded archive: %w", err)
		}
	}
	return path, nil
}
