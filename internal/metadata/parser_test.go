package metadata

import (
	"bytes"
	"compress/zlib"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prompt-sorter/internal/mediatypes"
	"prompt-sorter/internal/metadata/metadatatest"
)

func TestExtractScenario(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.jpg")
	metadatatest.WritePNG(t, a, 4, 4, "parameters", "cat, dog\nNegative prompt: blurry\nSteps: 20")
	metadatatest.WriteJPEG(t, b, 4, 4, nil)

	p := NewParser()

	res := p.Extract(a)
	if res.Kind != KindParsed {
		t.Fatalf("Expected parsed result, got %v (%v)", res.Kind, res.AsError())
	}
	want := Triple{Positive: "cat, dog", Negative: "blurry", GenerationInfo: "Steps: 20"}
	if res.Triple != want {
		t.Errorf("Expected %+v, got %+v", want, res.Triple)
	}
	if res.Container != mediatypes.ContainerPNG {
		t.Errorf("Expected png container, got %s", res.Container)
	}

	res = p.Extract(b)
	if res.Kind != KindNoMetadata {
		t.Fatalf("Expected no metadata, got %v", res.Kind)
	}
	if !errors.Is(res.AsError(), ErrNoMetadata) {
		t.Errorf("Expected ErrNoMetadata, got %v", res.AsError())
	}
	if res.Text() != "" {
		t.Errorf("Expected empty text, got %q", res.Text())
	}
}

func TestExtractTIFFUserComment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.tif")
	comment := metadatatest.UnicodeComment("owl\nNegative prompt: fog\nSteps: 8", true)
	metadatatest.WriteFile(t, path, metadatatest.TIFFBytes(comment))

	res := NewParser().Extract(path)
	if res.Kind != KindParsed {
		t.Fatalf("Expected parsed result, got %v (%v)", res.Kind, res.AsError())
	}
	if res.Container != mediatypes.ContainerTIFF {
		t.Errorf("Expected tiff container, got %s", res.Container)
	}
	want := Triple{Positive: "owl", Negative: "fog", GenerationInfo: "Steps: 8"}
	if res.Triple != want {
		t.Errorf("Expected %+v, got %+v", want, res.Triple)
	}
}

func TestExtractFormatsWithoutMetadata(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.gif", "b.bmp"} {
		path := filepath.Join(dir, name)
		metadatatest.WriteImage(t, path, 8, 8)

		res := NewParser().Extract(path)
		if res.Kind != KindNoMetadata || res.Container != mediatypes.ContainerOther {
			t.Errorf("%s: expected no metadata from other container, got %v/%s (%v)", name, res.Kind, res.Container, res.AsError())
		}
	}
}

func TestExtractJPEGUserComment(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		comment []byte
	}{
		{"UTF-16BE", metadatatest.UnicodeComment("fox\nNegative prompt: rain\nSteps: 12", true)},
		{"UTF-16LE", metadatatest.UnicodeComment("fox\nNegative prompt: rain\nSteps: 12", false)},
		{"ASCII", []byte("ASCII\x00\x00\x00fox\nNegative prompt: rain\nSteps: 12")},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "img"+string(rune('0'+i))+".jpeg")
			metadatatest.WriteJPEG(t, path, 8, 8, tt.comment)

			res := NewParser().Extract(path)
			if res.Kind != KindParsed {
				t.Fatalf("Expected parsed, got %v (%v)", res.Kind, res.AsError())
			}
			want := Triple{Positive: "fox", Negative: "rain", GenerationInfo: "Steps: 12"}
			if res.Triple != want {
				t.Errorf("Expected %+v, got %+v", want, res.Triple)
			}
			if v, ok := res.Field(keyUserComment); !ok || !strings.HasPrefix(v, "fox") {
				t.Errorf("Expected UserComment field, got %q, %v", v, ok)
			}
		})
	}
}

func TestExtractWebP(t *testing.T) {
	dir := t.TempDir()

	withExif := filepath.Join(dir, "with.webp")
	metadatatest.WriteFile(t, withExif, metadatatest.WebPBytes(
		metadatatest.ExifBlock(metadatatest.UnicodeComment("owl, night\nSeed: 5", true))))

	res := NewParser().Extract(withExif)
	if res.Kind != KindParsed {
		t.Fatalf("Expected parsed, got %v (%v)", res.Kind, res.AsError())
	}
	if res.Triple.Positive != "owl, night" || res.Triple.GenerationInfo != "Seed: 5" {
		t.Errorf("Unexpected triple %+v", res.Triple)
	}

	without := filepath.Join(dir, "without.webp")
	metadatatest.WriteFile(t, without, metadatatest.WebPBytes(nil))
	if res := NewParser().Extract(without); res.Kind != KindNoMetadata {
		t.Errorf("Expected no metadata, got %v", res.Kind)
	}
}

func TestExtractPNGChunkVariants(t *testing.T) {
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	zw.Write([]byte("zipped prompt\nSteps: 3"))
	zw.Close()

	ztxt := metadatatest.PNGChunk("zTXt", append([]byte("parameters\x00\x00"), z.Bytes()...))
	itxt := metadatatest.PNGChunk("iTXt", []byte("Comment\x00\x00\x00en\x00\x00猫の絵"))
	other := metadatatest.TextChunk("Software", "tool v1")

	path := filepath.Join(t.TempDir(), "variants.png")
	metadatatest.WriteFile(t, path, metadatatest.PNGBytes(t, 2, 2, other, itxt, ztxt))

	res := NewParser().Extract(path)
	if res.Kind != KindParsed {
		t.Fatalf("Expected parsed, got %v (%v)", res.Kind, res.AsError())
	}
	if len(res.Fields) != 3 {
		t.Fatalf("Expected 3 fields, got %+v", res.Fields)
	}
	if res.Triple.Positive != "zipped prompt" || res.Triple.GenerationInfo != "Steps: 3" {
		t.Errorf("Expected parameters to drive the triple, got %+v", res.Triple)
	}
	if v, _ := res.Field("Comment"); v != "猫の絵" {
		t.Errorf("Expected iTXt text, got %q", v)
	}

	text := res.Text()
	for _, want := range []string{"Software: tool v1", "猫の絵", "positive_prompt: zipped prompt"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected Text() to contain %q, got %q", want, text)
		}
	}
}

func TestExtractPNGWithoutPromptKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comfy.png")
	metadatatest.WritePNG(t, path, 2, 2, "workflow", `{"nodes":[]}`)

	res := NewParser().Extract(path)
	if res.Kind != KindParsed {
		t.Fatalf("Expected parsed, got %v", res.Kind)
	}
	if !res.Triple.IsZero() {
		t.Errorf("Expected empty triple, got %+v", res.Triple)
	}
	if !strings.Contains(res.Text(), "nodes") {
		t.Errorf("Expected raw field in text, got %q", res.Text())
	}
}

func TestExtractErrors(t *testing.T) {
	dir := t.TempDir()

	badPNG := filepath.Join(dir, "bad.png")
	os.WriteFile(badPNG, []byte("definitely not a png"), 0o644)

	badJPEG := filepath.Join(dir, "bad.jpg")
	os.WriteFile(badJPEG, []byte{0x00, 0x01, 0x02}, 0o644)

	badWebP := filepath.Join(dir, "bad.webp")
	os.WriteFile(badWebP, []byte("RIFF\x00\x00\x00\x00WAVE"), 0o644)

	tests := []struct {
		name      string
		path      string
		malformed bool
	}{
		{"bad PNG signature", badPNG, true},
		{"bad JPEG SOI", badJPEG, true},
		{"bad WebP header", badWebP, true},
		{"missing file", filepath.Join(dir, "missing.png"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewParser().Extract(tt.path)
			if res.Kind != KindError {
				t.Fatalf("Expected error result, got %v", res.Kind)
			}
			var extErr *ExtractionError
			if !errors.As(res.AsError(), &extErr) || extErr.Path != tt.path {
				t.Fatalf("Expected ExtractionError for %s, got %v", tt.path, res.AsError())
			}
			if got := errors.Is(res.AsError(), ErrMalformedContainer); got != tt.malformed {
				t.Errorf("errors.Is(ErrMalformedContainer) = %v, want %v", got, tt.malformed)
			}
		})
	}
}

func TestExtractGarbageUserCommentAlwaysReturns(t *testing.T) {
	garbage := []byte("UNICODE\x00\xD8\x00\xFF\xFE\x00\x00\x81\x40\xE3\x81\x82\x00a\x00")
	dir := t.TempDir()
	p := NewParser()

	for n := 0; n <= len(garbage); n++ {
		path := filepath.Join(dir, "g.jpg")
		metadatatest.WriteJPEG(t, path, 2, 2, garbage[:n])
		res := p.Extract(path)
		switch res.Kind {
		case KindParsed, KindNoMetadata:
		case KindError:
			if res.Err == nil {
				t.Errorf("length %d: error result without ExtractionError", n)
			}
		default:
			t.Errorf("length %d: unexpected kind %v", n, res.Kind)
		}
	}
}

func TestExtractTruncatedPNGKeepsEarlierChunks(t *testing.T) {
	data := metadatatest.PNGBytes(t, 2, 2, metadatatest.TextChunk("parameters", "kept\nSteps: 1"))
	// cut inside IDAT, after the text chunk
	data = data[:33+len(metadatatest.TextChunk("parameters", "kept\nSteps: 1"))+10]

	path := filepath.Join(t.TempDir(), "trunc.png")
	metadatatest.WriteFile(t, path, data)

	res := NewParser().Extract(path)
	if res.Kind != KindParsed || res.Triple.Positive != "kept" {
		t.Errorf("Expected earlier chunk to be kept, got %v %+v", res.Kind, res.Triple)
	}
}

func TestKindString(t *testing.T) {
	if KindParsed.String() != "parsed" || KindNoMetadata.String() != "no_metadata" || KindError.String() != "error" {
		t.Error("Unexpected Kind strings")
	}
}
