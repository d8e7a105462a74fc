package metadata

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// DecodeStep names the rung of the decoding ladder that produced a text.
type DecodeStep string

const (
	StepUTF16Strict DecodeStep = "utf16_strict"
	StepUTF16Lossy  DecodeStep = "utf16_lossy"
	StepUTF8        DecodeStep = "utf8"
	StepLegacy      DecodeStep = "legacy"
	StepUTF8Lossy   DecodeStep = "utf8_lossy"
)

// EXIF UserComment values start with an 8-byte character code.
var (
	markerUnicode   = []byte("UNICODE\x00")
	markerASCII     = []byte("ASCII\x00\x00\x00")
	markerJIS       = []byte("JIS\x00\x00\x00\x00\x00")
	markerUndefined = []byte("\x00\x00\x00\x00\x00\x00\x00\x00")

	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// legacyEncoding is the single-byte/DBCS code page tried before giving up.
// Most non-UTF tools writing these files ran on Japanese Windows.
var legacyEncoding encoding.Encoding = japanese.ShiftJIS

// DecodeText turns raw embedded bytes into text. It never fails: each step
// is tried in order and the first acceptable result wins, with lossy UTF-8
// as the last resort.
func DecodeText(raw []byte) (string, DecodeStep) {
	data, utf16Payload := stripCharsetMarker(raw)

	if utf16Payload {
		if s, ok := decodeUTF16(data, unicode.BigEndian, true); ok {
			return s, StepUTF16Strict
		}
		if s, ok := decodeUTF16(data, unicode.LittleEndian, true); ok {
			return s, StepUTF16Strict
		}
		first := preferredOrder(data)
		for _, order := range []unicode.Endianness{first, otherOrder(first)} {
			if s, ok := decodeUTF16(data, order, false); ok {
				return s, StepUTF16Lossy
			}
		}
	}

	if s, ok := decodeUTF8(data); ok {
		return s, StepUTF8
	}

	if s, ok := decodeLegacy(data); ok {
		return s, StepLegacy
	}

	return lossyUTF8(data), StepUTF8Lossy
}

// stripCharsetMarker removes a known character-code prefix and reports
// whether the payload should be treated as UTF-16.
func stripCharsetMarker(raw []byte) ([]byte, bool) {
	if i := bytes.Index(raw, markerUnicode); i >= 0 {
		return raw[i+len(markerUnicode):], true
	}
	for _, m := range [][]byte{markerASCII, markerJIS, markerUndefined} {
		if bytes.HasPrefix(raw, m) {
			return raw[len(m):], false
		}
	}
	if bytes.HasPrefix(raw, bomUTF16BE) || bytes.HasPrefix(raw, bomUTF16LE) {
		return raw, true
	}
	return raw, false
}

// preferredOrder guesses the byte order from where the zero bytes sit:
// ASCII text in UTF-16BE has zeros at even offsets, in UTF-16LE at odd ones.
func preferredOrder(data []byte) unicode.Endianness {
	if bytes.HasPrefix(data, bomUTF16LE) {
		return unicode.LittleEndian
	}
	if bytes.HasPrefix(data, bomUTF16BE) {
		return unicode.BigEndian
	}
	even, odd := zeroParity(data)
	if odd > even {
		return unicode.LittleEndian
	}
	return unicode.BigEndian
}

func otherOrder(order unicode.Endianness) unicode.Endianness {
	if order == unicode.BigEndian {
		return unicode.LittleEndian
	}
	return unicode.BigEndian
}

func zeroParity(data []byte) (even, odd int) {
	for i, b := range data {
		if b != 0 {
			continue
		}
		if i%2 == 0 {
			even++
		} else {
			odd++
		}
	}
	return even, odd
}

// decodeUTF16 decodes data in the given order. In strict mode the payload
// must have even length, decode without replacement characters, contain
// no control characters, and not contradict the zero-byte layout of order.
// In lossy mode invalid sequences are dropped.
func decodeUTF16(data []byte, order unicode.Endianness, strict bool) (string, bool) {
	if strict {
		if len(data)%2 != 0 {
			return "", false
		}
		even, odd := zeroParity(data)
		if order == unicode.BigEndian && odd > even {
			return "", false
		}
		if order == unicode.LittleEndian && even > odd {
			return "", false
		}
	}

	out, err := unicode.UTF16(order, unicode.ExpectBOM).NewDecoder().Bytes(data)
	if err != nil {
		// No BOM present; decode with the requested order
		out, err = unicode.UTF16(order, unicode.IgnoreBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
	}

	s := strings.TrimRight(string(out), "\x00")
	if strict {
		if strings.ContainsRune(s, utf8.RuneError) || hasControl(s) {
			return "", false
		}
		return s, true
	}

	s = dropInvalid(s)
	return s, strings.TrimSpace(s) != ""
}

func decodeUTF8(data []byte) (string, bool) {
	data = bytes.TrimPrefix(data, bomUTF8)
	if !utf8.Valid(data) {
		return "", false
	}
	s := strings.TrimRight(string(data), "\x00")
	if hasControl(s) {
		return "", false
	}
	return s, true
}

func decodeLegacy(data []byte) (string, bool) {
	out, err := legacyEncoding.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	s := strings.TrimRight(string(out), "\x00")
	if strings.ContainsRune(s, utf8.RuneError) || hasControl(s) {
		return "", false
	}
	return s, true
}

func lossyUTF8(data []byte) string {
	s := strings.ToValidUTF8(string(bytes.TrimPrefix(data, bomUTF8)), "")
	return dropInvalid(s)
}

// dropInvalid removes replacement characters, NULs and other C0 controls
// except tab and line breaks.
func dropInvalid(s string) string {
	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || isControl(r) {
			return -1
		}
		return r
	}, s)
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, isControl) >= 0
}

func isControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return r < 0x20 || r == 0x7F
}
