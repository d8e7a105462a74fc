package media

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/metrics"
)

var (
	vipsMu        sync.Mutex
	vipsAvailable bool
)

// vipsLogSettings maps the application level onto the libvips level and a
// handler that forwards messages to our logger.
func vipsLogSettings(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	forward := func(domain string, l vips.LogLevel, msg string) {
		switch l {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}

	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo, forward
	case logging.LevelInfo:
		return vips.LogLevelWarning, forward
	case logging.LevelWarn:
		return vips.LogLevelError, forward
	default:
		return vips.LogLevelCritical, forward
	}
}

// InitVips starts libvips for thumbnail decoding. Call it once at startup
// when VIPS_ENABLED is set; without it NewDecoder uses the pure-Go path.
func InitVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsAvailable {
		return
	}

	level, handler := vipsLogSettings(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsAvailable
}

// VipsDecoder shrinks during decode with libvips, which keeps peak memory
// close to the thumbnail size for large JPEGs.
type VipsDecoder struct{}

// Decode implements Decoder.
func (VipsDecoder) Decode(path string, size int) (image.Image, error) {
	start := time.Now()
	img, err := loadWithVips(path, size)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ThumbnailDecodesTotal.WithLabelValues("vips", status).Inc()
	metrics.ThumbnailDecodeDuration.WithLabelValues("vips").Observe(time.Since(start).Seconds())
	return img, err
}

func loadWithVips(path string, size int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if ref.Width() > size || ref.Height() > size {
		if err := ref.Thumbnail(size, size, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}

	data, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}

	logging.Debug("vips thumbnail for %s: %dx%d", filepath.Base(path), img.Bounds().Dx(), img.Bounds().Dy())
	return fit(img, size), nil
}
