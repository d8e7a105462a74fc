package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Thumbnail cache metrics
var (
	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prompt_sorter_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prompt_sorter_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	ThumbnailCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_thumbnail_cache_evictions_total",
			Help: "Total number of thumbnails evicted from the cache",
		},
		[]string{"reason"}, // "capacity", "resize", "remove", "clear"
	)

	ThumbnailCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prompt_sorter_thumbnail_cache_entries",
			Help: "Number of thumbnails currently held in the cache",
		},
	)

	ThumbnailCacheCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prompt_sorter_thumbnail_cache_capacity",
			Help: "Configured maximum number of cached thumbnails",
		},
	)

	ThumbnailDecodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_thumbnail_decodes_total",
			Help: "Total number of thumbnail decodes by backend and outcome",
		},
		[]string{"backend", "status"}, // backend: "vips", "imaging"; status: "success", "error", "timeout"
	)

	ThumbnailDecodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt_sorter_thumbnail_decode_duration_seconds",
			Help:    "Time spent decoding and downscaling one thumbnail",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend"},
	)
)

// Scan metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_scan_runs_total",
			Help: "Total number of folder scans by final state",
		},
		[]string{"state"}, // "completed", "stopped", "failed"
	)

	ScanFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_scan_files_total",
			Help: "Total number of files processed by scans",
		},
		[]string{"status"}, // "loaded", "skipped"
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prompt_sorter_scan_duration_seconds",
			Help:    "Wall time of a folder scan",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	ScanInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prompt_sorter_scans_in_flight",
			Help: "Number of scans currently running",
		},
	)

	ScanWorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prompt_sorter_scan_workers_busy",
			Help: "Number of scan workers currently decoding",
		},
	)
)

// Metadata metrics
var (
	MetadataExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_metadata_extractions_total",
			Help: "Total number of metadata extractions by container and result",
		},
		[]string{"container", "result"}, // result: "parsed", "no_metadata", "error"
	)

	MetadataDecodeSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_metadata_decode_steps_total",
			Help: "Which step of the text decoding ladder produced the result",
		},
		[]string{"step"},
	)

	MetadataCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_metadata_cache_lookups_total",
			Help: "Persistent metadata cache lookups by outcome",
		},
		[]string{"outcome"}, // "hit", "miss", "stale", "error"
	)
)

// Catalog metrics
var (
	CatalogImages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prompt_sorter_catalog_images",
			Help: "Number of images in the catalog lists",
		},
		[]string{"list"}, // "all", "displayed", "selected"
	)

	CatalogFilterDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prompt_sorter_catalog_filter_duration_seconds",
			Help:    "Time spent filtering the catalog",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// File operation metrics
var (
	FileOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_file_operations_total",
			Help: "Total number of per-file operations by kind and outcome",
		},
		[]string{"operation", "status"}, // operation: "move", "copy", "trash"; status: "success", "renamed", "error"
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt_sorter_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations, retries included",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_filesystem_retry_attempts_total",
			Help: "Total number of retries after a stale file handle",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_filesystem_retry_success_total",
			Help: "Total number of operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_filesystem_retry_failures_total",
			Help: "Total number of operations that failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors seen",
		},
		[]string{"operation"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prompt_sorter_memory_usage_ratio",
			Help: "Heap usage as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prompt_sorter_memory_paused",
			Help: "1 while scan workers are paused for memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prompt_sorter_memory_gc_pauses_total",
			Help: "Total number of forced GC runs triggered by memory pressure",
		},
	)
)

// HTTP metrics for the metrics server itself
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_sorter_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt_sorter_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
