package textutil

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeLegacy returns data as a UTF-8 string. A leading byte-order mark is
// dropped. Input that is not valid UTF-8 is decoded as Windows-1252, and
// legacy reports that the fallback was used.
func DecodeLegacy(data []byte) (text string, legacy bool) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), false
	}
	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("�"))), true
	}
	return string(decoded), true
}
