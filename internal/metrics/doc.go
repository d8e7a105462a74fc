// Package metrics provides Prometheus instrumentation for prompt-sorter.
//
// All metrics are prefixed with "prompt_sorter_" and registered on the
// default registry through promauto. They are only scraped when the CLI is
// started with METRICS_ADDR; otherwise they are updated and never read.
//
// # Metric Categories
//
// ## Thumbnail Cache
//   - ThumbnailCacheHits / ThumbnailCacheMisses: lookups by outcome
//   - ThumbnailCacheEvictions: entries dropped, by reason
//   - ThumbnailCacheEntries / ThumbnailCacheCapacity: current fill level
//   - ThumbnailDecodesTotal / ThumbnailDecodeDuration: decode work by backend
//
// ## Scans
//   - ScanRunsTotal: finished scans by terminal state
//   - ScanFilesTotal: files loaded or skipped
//   - ScanDuration, ScanInFlight, ScanWorkersBusy
//
// ## Metadata
//   - MetadataExtractionsTotal: by container and result
//   - MetadataDecodeSteps: which decoding step produced the text
//   - MetadataCacheLookups: persistent cache outcomes
//
// ## Catalog and File Operations
//   - CatalogImages: list sizes (all, displayed, selected)
//   - CatalogFilterDuration
//   - FileOpsTotal: per-file move, copy and trash outcomes
//
// ## Filesystem and Memory
//   - Filesystem*: stat/open/readdir timings and ESTALE retries, fed by the
//     filesystem.Observer returned from NewFilesystemObserver
//   - Memory*: usage ratio, pause state and forced GCs
//
// ## HTTP
//   - HTTPRequestsTotal / HTTPRequestDuration: requests to the metrics
//     server by route template
//
// Call InitializeMetrics once at startup so every label set is exported on
// the first scrape, and run a Collector to refresh the catalog and cache
// gauges.
package metrics
