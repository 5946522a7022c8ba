// Package archive owns the local transaction archive: one deduplicated,
// date-anchored CSV file per bank account, accumulated across runs.
package archive

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// anchorLayout encodes anchor dates into filenames with no separators.
const anchorLayout = "20060102"

// anchorPattern parses an anchor date back out of an archive filename.
var anchorPattern = regexp.MustCompile(`^history-from-(\d{8})\.csv$`)

// FileName renders the archive filename for a given anchor date.
func FileName(anchor time.Time) string {
	return fmt.Sprintf("history-from-%s.csv", anchor.Format(anchorLayout))
}

// ParseAnchor extracts the anchor date from an archive filename.
// Returns false when the name does not match the archive pattern or the
// 8-digit field is not a real calendar date.
func ParseAnchor(name string) (time.Time, bool) {
	m := anchorPattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	anchor, err := time.ParseInLocation(anchorLayout, m[1], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return anchor, true
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// SanitizeAccountName turns a bank's display label into a filesystem-safe
// directory name. Runs of unsafe characters collapse to a single dash and
// the result is lowercased so the same account maps to the same directory
// regardless of label casing drift between logins.
func SanitizeAccountName(name string) string {
	s := unsafeNameChars.ReplaceAllString(name, "-")
	s = strings.Trim(s, "-")
	return strings.ToLower(s)
}
