package metadata

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"prompt-sorter/internal/filesystem"
	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/mediatypes"
	"prompt-sorter/internal/metrics"
)

var (
	// ErrNoMetadata is returned by Result.AsError when the file carries no
	// embedded metadata at all.
	ErrNoMetadata = errors.New("no metadata")

	// ErrMalformedContainer marks files whose container structure could not
	// be read (bad signature, corrupt chunk layout).
	ErrMalformedContainer = errors.New("malformed container")
)

const keyUserComment = "UserComment"

// promptKeys are the fields parsed into a Triple, in order of preference.
var promptKeys = []string{"parameters", keyUserComment, "Comment", "Description"}

// Kind discriminates the outcome of an extraction.
type Kind int

const (
	// KindParsed means metadata was found; Triple may still be empty when
	// none of the fields is a prompt.
	KindParsed Kind = iota
	// KindNoMetadata means the container was readable but had no metadata.
	KindNoMetadata
	// KindError means the file could not be read or its container is broken.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindParsed:
		return "parsed"
	case KindNoMetadata:
		return "no_metadata"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is one decoded piece of embedded metadata.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ExtractionError describes why a file's metadata could not be read.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract metadata from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Result is the uniform outcome of Extract for every container.
type Result struct {
	Path      string
	Container mediatypes.Container
	Kind      Kind
	Triple    Triple
	Fields    []Field
	Err       *ExtractionError
}

// AsError maps the result onto an error: nil when parsed, ErrNoMetadata
// when empty, the ExtractionError otherwise.
func (r Result) AsError() error {
	switch r.Kind {
	case KindParsed:
		return nil
	case KindNoMetadata:
		return ErrNoMetadata
	default:
		if r.Err == nil {
			return &ExtractionError{Path: r.Path, Err: errors.New("unknown failure")}
		}
		return r.Err
	}
}

// Text is the full searchable metadata text: every raw field as
// "key: value" followed by the three prompt fields. It is empty unless
// the result is KindParsed.
func (r Result) Text() string {
	if r.Kind != KindParsed {
		return ""
	}
	var b strings.Builder
	for _, f := range r.Fields {
		b.WriteString(f.Key)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteByte('\n')
	}
	b.WriteString("positive_prompt: ")
	b.WriteString(r.Triple.Positive)
	b.WriteString("\nnegative_prompt: ")
	b.WriteString(r.Triple.Negative)
	b.WriteString("\ngeneration_info: ")
	b.WriteString(r.Triple.GenerationInfo)
	return b.String()
}

// Field returns the value stored under key.
func (r Result) Field(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Extractor is anything that can produce a Result for a path.
type Extractor interface {
	Extract(path string) Result
}

// Parser reads embedded prompt metadata from PNG, JPEG and WebP files.
// It is stateless and safe for concurrent use.
type Parser struct {
	retry filesystem.RetryConfig
}

// NewParser returns a Parser using the default filesystem retry policy.
func NewParser() *Parser {
	return &Parser{retry: filesystem.DefaultRetryConfig()}
}

// Extract reads path and returns its metadata. It never panics on bad
// input and never returns a Go error: failures are reported in the Result.
func (p *Parser) Extract(path string) Result {
	container := mediatypes.ContainerFor(path)
	res := p.extract(path, container)
	metrics.MetadataExtractionsTotal.WithLabelValues(string(container), res.Kind.String()).Inc()
	if res.Kind == KindError {
		logging.Debug("Metadata extraction failed for %s: %v", path, res.Err.Err)
	}
	return res
}

func (p *Parser) extract(path string, container mediatypes.Container) Result {
	res := Result{Path: path, Container: container}
	fail := func(err error) Result {
		res.Kind = KindError
		res.Err = &ExtractionError{Path: path, Err: err}
		return res
	}

	f, err := filesystem.OpenWithRetry(path, p.retry)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	raw, err := readContainer(f, container)
	if err != nil {
		return fail(err)
	}

	res.Fields = decodeFields(raw)
	if len(res.Fields) == 0 {
		res.Kind = KindNoMetadata
		return res
	}

	res.Kind = KindParsed
	for _, key := range promptKeys {
		if v, ok := res.Field(key); ok {
			res.Triple = Segment(v)
			break
		}
	}
	return res
}

// readContainer dispatches on the container type.
func readContainer(r io.Reader, container mediatypes.Container) ([]rawField, error) {
	switch container {
	case mediatypes.ContainerPNG:
		return readPNGText(r)
	case mediatypes.ContainerJPEG:
		return exifFields(findJPEGExif(r))
	case mediatypes.ContainerWebP:
		return exifFields(findWebPExif(r))
	case mediatypes.ContainerTIFF:
		return exifFields(readTIFF(r))
	case mediatypes.ContainerOther:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported file type")
	}
}

func exifFields(block []byte, err error) ([]rawField, error) {
	if err != nil || block == nil {
		return nil, err
	}
	comment, err := userCommentFromEXIF(block)
	if err != nil || comment == nil {
		return nil, err
	}
	return []rawField{{Key: keyUserComment, Value: comment}}, nil
}

// decodeFields runs each raw value through DecodeText and drops empty ones.
func decodeFields(raw []rawField) []Field {
	fields := make([]Field, 0, len(raw))
	for _, rf := range raw {
		var text string
		if rf.Decoded {
			text = strings.ToValidUTF8(string(rf.Value), "")
		} else {
			var step DecodeStep
			text, step = DecodeText(rf.Value)
			metrics.MetadataDecodeSteps.WithLabelValues(string(step)).Inc()
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields = append(fields, Field{Key: rf.Key, Value: text})
	}
	return fields
}
