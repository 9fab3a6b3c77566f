package repo

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf16LEBOM = []byte{0xFF, 0xFE}

// normalizeContent transcodes UTF-16LE content carrying a byte-order mark
// to UTF-8 without the mark. Anything else is returned unchanged.
func normalizeContent(data []byte) []byte {
	if !bytes.HasPrefix(data, utf16LEBOM) {
		return data
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return data
	}
	return out
}

// decodeText returns blob content as UTF-8 text for merging and diffing.
// A UTF-16 or UTF-8 byte-order mark selects the source encoding and is
// stripped.
func decodeText(data []byte) string {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
