package metadata

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rwcarlsen/goexif/exif"
)

const (
	// maxChunkSize bounds a single PNG chunk, WebP chunk or JPEG segment we
	// are willing to buffer.
	maxChunkSize = 64 << 20
	// maxInflatedText bounds a decompressed zTXt/iTXt payload.
	maxInflatedText = 16 << 20
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// rawField is one piece of embedded metadata before text decoding.
type rawField struct {
	Key   string
	Value []byte
	// Decoded is set when the container already fixes the encoding (iTXt).
	Decoded bool
}

// readPNGText collects tEXt, zTXt and iTXt chunks, plus the UserComment of
// an eXIf chunk, stopping at IEND. A truncated stream after at least one
// chunk ends the walk without error.
func readPNGText(r io.Reader) ([]rawField, error) {
	br := bufio.NewReader(r)

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil || !bytes.Equal(sig, pngSignature) {
		return nil, fmt.Errorf("%w: not a PNG file", ErrMalformedContainer)
	}

	var fields []rawField
	header := make([]byte, 8)
	for chunks := 0; ; chunks++ {
		if _, err := io.ReadFull(br, header); err != nil {
			if chunks > 0 {
				return fields, nil
			}
			return nil, fmt.Errorf("%w: truncated PNG header", ErrMalformedContainer)
		}

		length := binary.BigEndian.Uint32(header[:4])
		kind := string(header[4:8])
		if length > maxChunkSize {
			return fields, fmt.Errorf("%w: PNG chunk %q too large (%d bytes)", ErrMalformedContainer, kind, length)
		}

		switch kind {
		case "tEXt", "zTXt", "iTXt", "eXIf":
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return fields, nil
			}
			if f, ok := parsePNGTextChunk(kind, data); ok {
				fields = append(fields, f)
			}
			if _, err := br.Discard(4); err != nil {
				return fields, nil
			}
		case "IEND":
			return fields, nil
		default:
			if _, err := br.Discard(int(length) + 4); err != nil {
				return fields, nil
			}
		}
	}
}

func parsePNGTextChunk(kind string, data []byte) (rawField, bool) {
	switch kind {
	case "tEXt":
		key, value, ok := bytes.Cut(data, []byte{0})
		if !ok {
			return rawField{}, false
		}
		return rawField{Key: string(key), Value: value}, true

	case "zTXt":
		key, rest, ok := bytes.Cut(data, []byte{0})
		if !ok || len(rest) < 1 {
			return rawField{}, false
		}
		value, err := inflate(rest[1:])
		if err != nil {
			return rawField{}, false
		}
		return rawField{Key: string(key), Value: value}, true

	case "iTXt":
		// keyword \0 flag method language \0 translated \0 text
		key, rest, ok := bytes.Cut(data, []byte{0})
		if !ok || len(rest) < 2 {
			return rawField{}, false
		}
		compressed := rest[0] == 1
		rest = rest[2:]
		if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
			return rawField{}, false
		}
		if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
			return rawField{}, false
		}
		value := rest
		if compressed {
			var err error
			if value, err = inflate(rest); err != nil {
				return rawField{}, false
			}
		}
		return rawField{Key: string(key), Value: value, Decoded: true}, true

	case "eXIf":
		comment, err := userCommentFromEXIF(data)
		if err != nil || comment == nil {
			return rawField{}, false
		}
		return rawField{Key: keyUserComment, Value: comment}, true
	}
	return rawField{}, false
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, maxInflatedText))
}

// findJPEGExif walks JPEG marker segments up to the start of scan and
// returns the first APP1 "Exif" block, or nil when there is none.
func findJPEGExif(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	buf := make([]byte, 4)

	if _, err := io.ReadFull(br, buf[:2]); err != nil || buf[0] != 0xFF || buf[1] != 0xD8 {
		return nil, fmt.Errorf("%w: not a JPEG file", ErrMalformedContainer)
	}

	for {
		if _, err := io.ReadFull(br, buf[:2]); err != nil {
			return nil, nil
		}
		if buf[0] != 0xFF {
			return nil, fmt.Errorf("%w: bad JPEG marker 0x%02x%02x", ErrMalformedContainer, buf[0], buf[1])
		}
		marker := buf[1]
		// fill bytes
		for marker == 0xFF {
			b, err := br.ReadByte()
			if err != nil {
				return nil, nil
			}
			marker = b
		}

		switch {
		case marker == 0xD9 || marker == 0xDA:
			return nil, nil
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			continue
		}

		if _, err := io.ReadFull(br, buf[:2]); err != nil {
			return nil, nil
		}
		segLen := int(binary.BigEndian.Uint16(buf[:2])) - 2
		if segLen < 0 {
			return nil, fmt.Errorf("%w: bad JPEG segment length", ErrMalformedContainer)
		}

		if marker != 0xE1 {
			if _, err := br.Discard(segLen); err != nil {
				return nil, nil
			}
			continue
		}

		data := make([]byte, segLen)
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, nil
		}
		if bytes.HasPrefix(data, []byte("Exif\x00\x00")) {
			return data, nil
		}
	}
}

// findWebPExif walks the RIFF chunks of a WebP file and returns the payload
// of the EXIF chunk, or nil when there is none.
func findWebPExif(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	header := make([]byte, 12)
	if _, err := io.ReadFull(br, header); err != nil ||
		string(header[:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
		return nil, fmt.Errorf("%w: not a WebP file", ErrMalformedContainer)
	}

	chunk := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, chunk); err != nil {
			return nil, nil
		}
		kind := string(chunk[:4])
		size := binary.LittleEndian.Uint32(chunk[4:])
		if size > maxChunkSize {
			return nil, fmt.Errorf("%w: WebP chunk %q too large (%d bytes)", ErrMalformedContainer, kind, size)
		}
		padded := int(size) + int(size&1)

		if kind != "EXIF" {
			if _, err := br.Discard(padded); err != nil {
				return nil, nil
			}
			continue
		}

		data := make([]byte, size)
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, nil
		}
		return data, nil
	}
}

// readTIFF returns the whole file, which goexif parses as a raw TIFF
// block. Files above maxChunkSize are rejected.
func readTIFF(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxChunkSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxChunkSize {
		return nil, fmt.Errorf("%w: TIFF larger than %d bytes", ErrMalformedContainer, maxChunkSize)
	}
	return data, nil
}

// userCommentFromEXIF decodes an EXIF block (raw TIFF or "Exif\0\0"
// prefixed) and returns the raw UserComment bytes, or nil if absent.
func userCommentFromEXIF(block []byte) ([]byte, error) {
	block = bytes.TrimPrefix(block, []byte("Exif\x00\x00"))
	x, err := exif.Decode(bytes.NewReader(block))
	if err != nil && x == nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	tag, err := x.Get(exif.UserComment)
	if err != nil {
		var missing exif.TagNotPresentError
		if errors.As(err, &missing) {
			return nil, nil
		}
		return nil, err
	}
	return tag.Val, nil
}
