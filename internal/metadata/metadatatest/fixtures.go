// Package metadatatest builds image files with embedded prompt metadata
// for tests.
package metadatatest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// Solid returns a w×h image filled with c.
func Solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// PNGChunk encodes one PNG chunk including length and CRC.
func PNGChunk(kind string, data []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(kind)
	buf.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(kind))
	crc.Write(data)
	_ = binary.Write(&buf, binary.BigEndian, crc.Sum32())
	return buf.Bytes()
}

// TextChunk builds a tEXt chunk.
func TextChunk(key, value string) []byte {
	return PNGChunk("tEXt", append(append([]byte(key), 0), value...))
}

// PNGBytes encodes a w×h PNG and inserts extra chunks right after IHDR.
func PNGBytes(t testing.TB, w, h int, chunks ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, Solid(w, h, color.NRGBA{R: 200, G: 80, B: 40, A: 255})); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	encoded := buf.Bytes()

	// signature (8) + IHDR chunk (4+4+13+4)
	const afterIHDR = 33
	out := append([]byte{}, encoded[:afterIHDR]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, encoded[afterIHDR:]...)
}

// WritePNG writes a PNG with one tEXt chunk per entry of text, in order of
// the key/value pairs given.
func WritePNG(t testing.TB, path string, w, h int, kv ...string) {
	t.Helper()
	if len(kv)%2 != 0 {
		t.Fatalf("WritePNG needs key/value pairs")
	}
	var chunks [][]byte
	for i := 0; i < len(kv); i += 2 {
		chunks = append(chunks, TextChunk(kv[i], kv[i+1]))
	}
	write(t, path, PNGBytes(t, w, h, chunks...))
}

// ExifBlock builds an "Exif\0\0"-prefixed big-endian TIFF block whose Exif
// IFD holds a single UserComment tag with the given raw value.
func ExifBlock(userComment []byte) []byte {
	var b bytes.Buffer
	be := binary.BigEndian
	w16 := func(v uint16) { _ = binary.Write(&b, be, v) }
	w32 := func(v uint32) { _ = binary.Write(&b, be, v) }

	b.WriteString("Exif\x00\x00")
	// TIFF header; offsets below are relative to its start
	b.WriteString("MM\x00\x2A")
	w32(8)

	// IFD0 at 8: one entry pointing at the Exif IFD
	w16(1)
	w16(0x8769)
	w16(4)
	w32(1)
	w32(26)
	w32(0)

	// Exif IFD at 26: UserComment, UNDEFINED
	count := uint32(len(userComment))
	w16(1)
	w16(0x9286)
	w16(7)
	w32(count)
	if count <= 4 {
		padded := make([]byte, 4)
		copy(padded, userComment)
		b.Write(padded)
	} else {
		w32(44)
	}
	w32(0)
	if count > 4 {
		b.Write(userComment)
	}
	return b.Bytes()
}

// UnicodeComment encodes s as an EXIF UserComment with the UNICODE
// character code and UTF-16 payload in the requested byte order.
func UnicodeComment(s string, bigEndian bool) []byte {
	out := []byte("UNICODE\x00")
	for _, r := range s {
		if r > 0xFFFF {
			r = '?'
		}
		if bigEndian {
			out = append(out, byte(r>>8), byte(r))
		} else {
			out = append(out, byte(r), byte(r>>8))
		}
	}
	return out
}

// JPEGBytes encodes a w×h JPEG. A non-nil userComment is embedded in an
// APP1 Exif segment directly after SOI.
func JPEGBytes(t testing.TB, w, h int, userComment []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Solid(w, h, color.NRGBA{R: 40, G: 120, B: 200, A: 255}), nil); err != nil {
		t.Fatalf("Failed to encode JPEG: %v", err)
	}
	encoded := buf.Bytes()
	if userComment == nil {
		return encoded
	}

	block := ExifBlock(userComment)
	out := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	out = binary.BigEndian.AppendUint16(out, uint16(len(block)+2))
	out = append(out, block...)
	return append(out, encoded[2:]...)
}

// WriteJPEG writes JPEGBytes to path.
func WriteJPEG(t testing.TB, path string, w, h int, userComment []byte) {
	t.Helper()
	write(t, path, JPEGBytes(t, w, h, userComment))
}

// WebPBytes builds a RIFF/WEBP container holding a placeholder VP8X chunk
// and, when exif is non-nil, an EXIF chunk. It is not decodable as an image.
func WebPBytes(exif []byte) []byte {
	var body bytes.Buffer
	body.WriteString("WEBP")
	chunk := func(kind string, data []byte) {
		body.WriteString(kind)
		_ = binary.Write(&body, binary.LittleEndian, uint32(len(data)))
		body.Write(data)
		if len(data)%2 == 1 {
			body.WriteByte(0)
		}
	}
	chunk("VP8X", make([]byte, 10))
	chunk("ICCP", []byte{1, 2, 3})
	if exif != nil {
		chunk("EXIF", exif)
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func write(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// WriteImage writes a solid w×h image in the format named by the
// extension of path (gif, bmp, tiff, jpg or png).
func WriteImage(t testing.TB, path string, w, h int) {
	t.Helper()
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		t.Fatalf("No encoder for %s: %v", path, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Solid(w, h, color.Gray{Y: 128}), format); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
	write(t, path, buf.Bytes())
}

// TIFFBytes returns ExifBlock without its "Exif\0\0" prefix, which is a
// minimal TIFF file carrying the UserComment.
func TIFFBytes(userComment []byte) []byte {
	return bytes.TrimPrefix(ExifBlock(userComment), []byte("Exif\x00\x00"))
}

// WriteFile writes raw bytes to path.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	write(t, path, data)
}
