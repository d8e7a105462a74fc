package workers

import (
	"os"
	"runtime"
	"strconv"
)

// DefaultScanWorkers is the fixed pool size used for a thumbnail scan.
const DefaultScanWorkers = 4

// envOverride returns a positive integer from the named variable, or 0.
func envOverride(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Count returns a worker count scaled from GOMAXPROCS by multiplier and
// capped at limit (0 means no cap). SCAN_WORKERS overrides the result.
func Count(multiplier float64, limit int) int {
	if n := envOverride("SCAN_WORKERS"); n > 0 {
		if limit > 0 && n > limit {
			return limit
		}
		return n
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForScan returns the pool size for a thumbnail scan. Unlike Count it does
// not follow the CPU count: scans use DefaultScanWorkers unless SCAN_WORKERS
// is set.
func ForScan() int {
	if n := envOverride("SCAN_WORKERS"); n > 0 {
		return n
	}
	return DefaultScanWorkers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}
