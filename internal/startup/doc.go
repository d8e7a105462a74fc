// Package startup reads the environment configuration and writes the
// startup log.
//
// Environment variables:
//   - THUMBNAIL_SIZE: thumbnail box edge in pixels (default 200)
//   - CACHE_SIZE: thumbnail cache capacity (default 1000, must be >= 1)
//   - CACHE_POLICY: "fifo" (default) or "lru"
//   - SCAN_WORKERS: scan pool size (default 4)
//   - SORT_ORDER: filename_asc, filename_desc, date_asc or date_desc
//   - DECODE_TIMEOUT: per-file thumbnail timeout, e.g. "10s" (default none)
//   - SKIP_HIDDEN: ignore dot files and folders while scanning (default true)
//   - VIPS_ENABLED: decode with libvips (default false)
//   - METADATA_DB: SQLite metadata cache path (default disabled)
//   - METRICS_ADDR: address for the Prometheus endpoint (default disabled)
//
// Memory limits (MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT) are handled by
// the memory package; LOG_LEVEL and DEBUG by the logging package.
package startup
