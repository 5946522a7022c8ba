package archive

import (
	"sort"
	"strings"
	"time"
)

// rowDateLayout is the day/month/year form the source uses in the first
// field of every row.
const rowDateLayout = "02/01/2006"

// Merge combines a freshly fetched export with the existing archive content.
//
// Rules:
//   - no existing content: the new content becomes the archive verbatim;
//   - empty new content: the existing content is retained verbatim;
//   - otherwise the header line is taken from the existing content (never
//     from the new export), all non-header rows from both sides are unioned
//     on exact line text, and the union is rendered sorted by row date,
//     most recent first.
//
// Rows whose first field does not parse as a date sort after every parsable
// row; ties fall back to descending text order so the output is total and
// deterministic. A merge never fails.
func Merge(existing, fresh string) string {
	if strings.TrimSpace(existing) == "" {
		return fresh
	}
	if strings.TrimSpace(fresh) == "" {
		return existing
	}

	existingLines := splitRows(existing)
	freshLines := splitRows(fresh)

	header := existingLines[0]

	seen := make(map[string]struct{})
	var rows []string
	collect := func(lines []string) {
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			rows = append(rows, line)
		}
	}
	collect(existingLines)
	collect(freshLines)

	sortRows(rows)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

// splitRows splits content into lines, tolerating CRLF endings and a
// trailing newline. Always returns at least one element.
func splitRows(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimRight(content, "\n")
	return strings.Split(content, "\n")
}

// sortRows orders rows by their leading date field, most recent first.
// Unparsable dates land after every parsable one.
func sortRows(rows []string) {
	sort.SliceStable(rows, func(i, j int) bool {
		di, iok := rowDate(rows[i])
		dj, jok := rowDate(rows[j])
		switch {
		case iok && jok:
			if !di.Equal(dj) {
				return di.After(dj)
			}
			return rows[i] > rows[j]
		case iok:
			return true
		case jok:
			return false
		default:
			return rows[i] > rows[j]
		}
	})
}

// rowDate parses the first delimited field of a row as a calendar date.
// Semicolon is the source's delimiter; comma is accepted as a fallback for
// exports that were re-saved with a different separator.
func rowDate(row string) (time.Time, bool) {
	field := row
	if i := strings.IndexAny(row, ";,"); i >= 0 {
		field = row[:i]
	}
	d, err := time.ParseInLocation(rowDateLayout, strings.TrimSpace(field), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
