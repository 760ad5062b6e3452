// Package charset normalizes bank exports to UTF-8 before they reach the CSV readers.
package charset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Detect names the charset of a sample the way NewUTF8Reader would decode it.
// BOMs win, then UTF-8 validity, then chardet, then Windows-1252.
func Detect(sample []byte) string {
	name, _ := decoderFor(sample)
	return name
}

// NewUTF8Reader returns r decoded to UTF-8, with any UTF-8 BOM stripped.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	sample, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	name, dec := decoderFor(sample)

	if name == "UTF-8" && bytes.HasPrefix(sample, bomUTF8) {
		_, _ = br.Discard(len(bomUTF8))
	}

	if dec == nil {
		return br, nil
	}

	return transform.NewReader(br, dec.NewDecoder()), nil
}

// decoderFor returns a nil encoding when the input is already UTF-8.
func decoderFor(sample []byte) (string, encoding.Encoding) {
	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		return "UTF-8", nil
	case bytes.HasPrefix(sample, bomUTF16LE):
		return "UTF-16LE", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case bytes.HasPrefix(sample, bomUTF16BE):
		return "UTF-16BE", unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case utf8.Valid(trimPartialRune(sample)):
		return "UTF-8", nil
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err == nil {
		switch result.Charset {
		case "UTF-8":
			return "UTF-8", nil
		case "ISO-8859-1", "windows-1252":
			return "windows-1252", charmap.Windows1252
		case "ISO-8859-9":
			return "ISO-8859-9", charmap.ISO8859_9
		case "ISO-8859-15":
			return "ISO-8859-15", charmap.ISO8859_15
		}
	}

	return "windows-1252", charmap.Windows1252
}

// trimPartialRune drops a multi-byte sequence cut by the sniff window.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < utf8.RuneSelf {
			return b
		}

		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}

			return b
		}
	}

	return b
}
