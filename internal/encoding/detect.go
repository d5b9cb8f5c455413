package encoding

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ToUTF8 normalises the raw content of a data file to UTF-8 without a BOM.
// Data files are usually written by the application itself, but settings and
// templates are also edited by hand in whatever editor is at hand.
//
// Detection order:
//  1. BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Valid UTF-8 is returned as-is
//  3. Heuristic detection via chardet
//  4. Fallback to Windows-1252
func ToUTF8(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, bomUTF8) {
		return data[len(bomUTF8):], nil
	}

	if bytes.HasPrefix(data, bomUTF16LE) {
		return decode(data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
	}

	if bytes.HasPrefix(data, bomUTF16BE) {
		return decode(data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder())
	}

	if utf8.Valid(data) {
		return data, nil
	}

	result, err := chardet.NewTextDetector().DetectBest(data)
	if err == nil {
		switch result.Charset {
		case "UTF-8":
			return data, nil
		case "ISO-8859-9":
			return decode(data, charmap.ISO8859_9.NewDecoder())
		}
	}

	return decode(data, charmap.Windows1252.NewDecoder())
}

func decode(data []byte, t transform.Transformer) ([]byte, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), t))
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}

	return out, nil
}
