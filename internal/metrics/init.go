package metrics

import "prompt-sorter/internal/mediatypes"

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	for _, reason := range []string{"capacity", "resize", "remove", "clear"} {
		ThumbnailCacheEvictions.WithLabelValues(reason)
	}

	for _, backend := range []string{"vips", "imaging"} {
		ThumbnailDecodeDuration.WithLabelValues(backend)
		for _, status := range []string{"success", "error", "timeout"} {
			ThumbnailDecodesTotal.WithLabelValues(backend, status)
		}
	}

	for _, state := range []string{"completed", "stopped", "failed"} {
		ScanRunsTotal.WithLabelValues(state)
	}
	for _, status := range []string{"loaded", "skipped"} {
		ScanFilesTotal.WithLabelValues(status)
	}

	for _, c := range mediatypes.Containers {
		for _, result := range []string{"parsed", "no_metadata", "error"} {
			MetadataExtractionsTotal.WithLabelValues(string(c), result)
		}
	}
	for _, step := range []string{"utf16_strict", "utf16_lossy", "utf8", "legacy", "utf8_lossy"} {
		MetadataDecodeSteps.WithLabelValues(step)
	}
	for _, outcome := range []string{"hit", "miss", "stale", "error"} {
		MetadataCacheLookups.WithLabelValues(outcome)
	}

	for _, list := range []string{"all", "displayed", "selected"} {
		CatalogImages.WithLabelValues(list)
	}

	for _, op := range []string{"move", "copy", "trash"} {
		for _, status := range []string{"success", "renamed", "error"} {
			FileOpsTotal.WithLabelValues(op, status)
		}
	}

	for _, op := range []string{"stat", "open", "readdir"} {
		FilesystemOperationDuration.WithLabelValues(op)
		FilesystemOperationErrors.WithLabelValues(op)
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}
}
