package archive

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeExport normalizes raw export bytes to UTF-8.
//
// The source serves CSV exports as Windows-1252, which corrupts accented
// payee names if merged as-is — and because deduplication keys on exact line
// text, a mojibake row and its clean twin would both be retained. Content
// that is already valid UTF-8 passes through untouched.
func DecodeExport(raw string) string {
	if utf8.ValidString(raw) {
		return raw
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(raw)
	if err != nil {
		// Windows-1252 decoding cannot actually fail (every byte maps),
		// but keep the raw bytes rather than dropping the export.
		return raw
	}
	return decoded
}
