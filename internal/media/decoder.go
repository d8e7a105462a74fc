package media

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // WebP format support

	"prompt-sorter/internal/filesystem"
	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/metrics"
)

// MaxImagePixels is the largest source image we will decode. Anything
// bigger is reported as a decode failure instead of risking the heap.
const MaxImagePixels = 100_000_000

// ErrImageTooLarge is returned for sources above MaxImagePixels.
var ErrImageTooLarge = errors.New("image too large")

// Decoder loads path and scales it to fit a size×size box, preserving the
// aspect ratio. The longer edge always ends up equal to size, so small
// sources are scaled up.
type Decoder interface {
	Decode(path string, size int) (image.Image, error)
}

// ImagingDecoder decodes with the standard image codecs. It downscales
// with an area-averaging (box) filter and upscales bilinearly.
type ImagingDecoder struct {
	Retry filesystem.RetryConfig
}

// Decode implements Decoder.
func (d ImagingDecoder) Decode(path string, size int) (image.Image, error) {
	start := time.Now()
	img, err := d.decode(path, size)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ThumbnailDecodesTotal.WithLabelValues("imaging", status).Inc()
	metrics.ThumbnailDecodeDuration.WithLabelValues("imaging").Observe(time.Since(start).Seconds())
	return img, err
}

func (d ImagingDecoder) decode(path string, size int) (image.Image, error) {
	retry := d.Retry
	if retry.MaxRetries == 0 && retry.InitialBackoff == 0 {
		retry = filesystem.DefaultRetryConfig()
	}

	f, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("read image header: %w", err)
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return fit(img, size), nil
}

func fit(img image.Image, size int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch {
	case w == size && h <= size, h == size && w <= size:
		return imaging.Clone(img)
	case w > size || h > size:
		return imaging.Fit(img, size, size, imaging.Box)
	}

	// imaging.Fit never enlarges; scale the longer edge up to size.
	if w >= h {
		return imaging.Resize(img, size, max(1, (h*size+w/2)/w), imaging.Linear)
	}
	return imaging.Resize(img, max(1, (w*size+h/2)/h), size, imaging.Linear)
}

// chainDecoder tries libvips first when it is running and falls back to
// the pure-Go decoder.
type chainDecoder struct {
	vips    Decoder
	imaging Decoder
}

// NewDecoder returns the default decoder: libvips when InitVips has
// succeeded, otherwise ImagingDecoder.
func NewDecoder() Decoder {
	return chainDecoder{vips: VipsDecoder{}, imaging: ImagingDecoder{Retry: filesystem.DefaultRetryConfig()}}
}

func (c chainDecoder) Decode(path string, size int) (image.Image, error) {
	if IsVipsAvailable() {
		img, err := c.vips.Decode(path, size)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips failed for %s, falling back: %v", filepath.Base(path), err)
	}
	return c.imaging.Decode(path, size)
}
