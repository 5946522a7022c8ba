package archive

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

// TestDecodeExport_PassthroughUTF8 verifies clean content is untouched.
func TestDecodeExport_PassthroughUTF8(t *testing.T) {
	in := "Date;Description\n05/01/2024;CARTE MONOPRIX\n"
	assert.Equal(t, in, DecodeExport(in))

	accented := "05/01/2024;VIR REÇU M. DUPONT\n"
	assert.Equal(t, accented, DecodeExport(accented))
}

// TestDecodeExport_Windows1252 verifies Latin-1 era exports come out as
// UTF-8. 0xE9 is 'é' in Windows-1252 and an invalid byte in UTF-8.
func TestDecodeExport_Windows1252(t *testing.T) {
	raw := "05/01/2024;CARTE BOULANGERIE G\xe9RARD\n"
	assert.False(t, utf8.ValidString(raw))

	got := DecodeExport(raw)
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "GéRARD")
}
