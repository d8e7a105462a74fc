package metadata

import (
	"context"
	"time"

	"prompt-sorter/internal/filesystem"
	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/metrics"
)

// FileStamp identifies a file's content at a point in time.
type FileStamp struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Store persists extraction results keyed by path. A stored entry is only
// valid while its stamp matches the file on disk.
type Store interface {
	LookupMetadata(ctx context.Context, path string) (FileStamp, Result, bool, error)
	SaveMetadata(ctx context.Context, stamp FileStamp, res Result) error
}

// CachedExtractor serves results from a Store while the file is unchanged
// and falls back to the wrapped Extractor otherwise. Errors are never
// stored, so an unreadable file is retried on the next call.
type CachedExtractor struct {
	inner   Extractor
	store   Store
	timeout time.Duration
}

// NewCachedExtractor wraps inner with store. timeout bounds each store call.
func NewCachedExtractor(inner Extractor, store Store, timeout time.Duration) *CachedExtractor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CachedExtractor{inner: inner, store: store, timeout: timeout}
}

// Extract implements Extractor.
func (c *CachedExtractor) Extract(path string) Result {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return c.inner.Extract(path)
	}
	stamp := FileStamp{Path: path, Size: info.Size(), ModTime: info.ModTime()}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stored, res, ok, err := c.store.LookupMetadata(ctx, path)
	switch {
	case err != nil:
		metrics.MetadataCacheLookups.WithLabelValues("error").Inc()
		logging.Warn("Metadata cache lookup failed for %s: %v", path, err)
	case !ok:
		metrics.MetadataCacheLookups.WithLabelValues("miss").Inc()
	case stored.Size != stamp.Size || !stored.ModTime.Equal(stamp.ModTime):
		metrics.MetadataCacheLookups.WithLabelValues("stale").Inc()
	default:
		metrics.MetadataCacheLookups.WithLabelValues("hit").Inc()
		return res
	}

	res = c.inner.Extract(path)
	if res.Kind == KindError {
		return res
	}
	if err := c.store.SaveMetadata(ctx, stamp, res); err != nil {
		logging.Warn("Failed to cache metadata for %s: %v", path, err)
	}
	return res
}
