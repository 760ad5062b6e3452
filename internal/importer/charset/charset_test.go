package charset_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/budgeteer/internal/importer/charset"
)

func readAll(t *testing.T, in []byte) string {
	t.Helper()

	r, err := charset.NewUTF8Reader(bytes.NewReader(in))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader(t *testing.T) {
	const text = "Descrição;Montante\nCafé;12,50\n"

	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	type testCase struct {
		name  string
		input []byte
	}

	tests := []testCase{
		{"UTF8Passthrough", []byte(text)},
		{"UTF8BOMStripped", append([]byte{0xEF, 0xBB, 0xBF}, text...)},
		{"Windows1252", latin1},
		{"UTF16LE", utf16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, text, readAll(t, tt.input))
		})
	}
}

func TestNewUTF8Reader_LongInputSplitRune(t *testing.T) {
	// Pushes a two-byte "ç" across the sniff boundary.
	text := strings.Repeat("a", 4095) + "ç\n"
	assert.Equal(t, text, readAll(t, []byte(text)))
}

func TestDetect(t *testing.T) {
	assert.Equal(t, "UTF-8", charset.Detect([]byte("plain ascii")))
	assert.Equal(t, "UTF-16LE", charset.Detect([]byte{0xFF, 0xFE, 'a', 0}))
	assert.NotEqual(t, "UTF-8", charset.Detect([]byte{'D', 'e', 's', 'c', 'r', 'i', 0xE7, 0xE3, 'o'}))
}
