package importer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// newUTF8Reader wraps r so the CSV layer always sees UTF-8. Bank exports
// arrive as UTF-8 with BOM (PayPal), UTF-16, Shift_JIS/EUC-JP (Japanese
// banks) or Windows-1252, so detection goes: BOM, then valid UTF-8 as-is,
// then chardet heuristics, then a Windows-1252 fallback.
func newUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	if bytes.HasPrefix(buf, bomUTF8) {
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	}
	if bytes.HasPrefix(buf, bomUTF16LE) {
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	}
	if bytes.HasPrefix(buf, bomUTF16BE) {
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	}

	if utf8.Valid(buf) {
		return br, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		switch result.Charset {
		case "UTF-8":
			return br, nil
		case "Shift_JIS":
			return transform.NewReader(br, japanese.ShiftJIS.NewDecoder()), nil
		case "EUC-JP":
			return transform.NewReader(br, japanese.EUCJP.NewDecoder()), nil
		case "ISO-8859-1", "windows-1252":
			return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

// sniffDelimiter picks the separator that appears most often in the header
// line. Comma wins ties, matching the exports seen in the wild.
func sniffDelimiter(header string) rune {
	best, count := ',', countOutsideQuotes(header, ',')
	for _, sep := range []rune{';', '\t'} {
		if n := countOutsideQuotes(header, sep); n > count {
			best, count = sep, n
		}
	}
	return best
}

func countOutsideQuotes(s string, sep rune) int {
	n := 0
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == sep && !quoted:
			n++
		}
	}
	return n
}
