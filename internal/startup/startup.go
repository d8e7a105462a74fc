package startup

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/mediatypes"
	"prompt-sorter/internal/memory"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

const (
	defaultThumbnailSize = 200
	defaultCacheSize     = 1000
	defaultScanWorkers   = 4
)

// Config holds all application configuration
type Config struct {
	ThumbnailSize int
	CacheSize     int
	// CachePolicy is "fifo" or "lru"
	CachePolicy   string
	ScanWorkers   int
	SortOrder     mediatypes.SortKey
	DecodeTimeout time.Duration
	SkipHidden    bool
	VipsEnabled   bool

	// MetadataDB is the SQLite metadata cache path; empty disables it
	MetadataDB string
	// MetricsAddr is the listen address for /metrics; empty disables it
	MetricsAddr string
}

// LoadConfig reads configuration from environment variables. Invalid
// values fall back to their defaults with a warning, except a cache size
// below 1.
func LoadConfig() (*Config, error) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg := &Config{
		ThumbnailSize: getEnvInt("THUMBNAIL_SIZE", defaultThumbnailSize),
		CacheSize:     getEnvInt("CACHE_SIZE", defaultCacheSize),
		CachePolicy:   strings.ToLower(getEnv("CACHE_POLICY", "fifo")),
		ScanWorkers:   getEnvInt("SCAN_WORKERS", defaultScanWorkers),
		DecodeTimeout: getEnvDuration("DECODE_TIMEOUT", 0),
		SkipHidden:    getEnvBool("SKIP_HIDDEN", true),
		VipsEnabled:   getEnvBool("VIPS_ENABLED", false),
		MetadataDB:    getEnv("METADATA_DB", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ""),
	}

	sortOrder, err := mediatypes.ParseSortKey(getEnv("SORT_ORDER", string(mediatypes.DefaultSortKey)))
	if err != nil {
		logging.Warn("  Invalid SORT_ORDER (%v), using default: %s", err, mediatypes.DefaultSortKey)
		sortOrder = mediatypes.DefaultSortKey
	}
	cfg.SortOrder = sortOrder

	if cfg.ThumbnailSize < 1 {
		logging.Warn("  Invalid THUMBNAIL_SIZE %d, using default: %d", cfg.ThumbnailSize, defaultThumbnailSize)
		cfg.ThumbnailSize = defaultThumbnailSize
	}
	if cfg.ScanWorkers < 1 {
		logging.Warn("  Invalid SCAN_WORKERS %d, using default: %d", cfg.ScanWorkers, defaultScanWorkers)
		cfg.ScanWorkers = defaultScanWorkers
	}
	if cfg.CachePolicy != "fifo" && cfg.CachePolicy != "lru" {
		logging.Warn("  Invalid CACHE_POLICY %q, using default: fifo", cfg.CachePolicy)
		cfg.CachePolicy = "fifo"
	}

	logging.Info("  THUMBNAIL_SIZE:  %d", cfg.ThumbnailSize)
	logging.Info("  CACHE_SIZE:      %d", cfg.CacheSize)
	logging.Info("  CACHE_POLICY:    %s", cfg.CachePolicy)
	logging.Info("  SCAN_WORKERS:    %d", cfg.ScanWorkers)
	logging.Info("  SORT_ORDER:      %s", cfg.SortOrder)
	logging.Info("  DECODE_TIMEOUT:  %s", durationString(cfg.DecodeTimeout))
	logging.Info("  SKIP_HIDDEN:     %v", cfg.SkipHidden)
	logging.Info("  VIPS_ENABLED:    %v", cfg.VipsEnabled)
	logging.Info("  METADATA_DB:     %s", orDisabled(cfg.MetadataDB))
	logging.Info("  METRICS_ADDR:    %s", orDisabled(cfg.MetricsAddr))
	logging.Info("  LOG_LEVEL:       %s", logging.GetLevel())

	if cfg.CacheSize < 1 {
		return nil, fmt.Errorf("CACHE_SIZE must be at least 1, got %d", cfg.CacheSize)
	}
	return cfg, nil
}

// LogSystemInfo logs version and runtime details at startup.
func LogSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("PROMPT SORTER %s (commit %s, built %s)", Version, Commit, BuildTime)
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
	}
}

// LogMemoryConfig reports the result of memory.ConfigureFromEnv.
func LogMemoryConfig(result memory.ConfigResult) {
	switch {
	case !result.Configured:
		logging.Debug("  Memory limit:    not configured")
	case result.Source == "GOMEMLIMIT":
		logging.Info("  Memory limit:    %s (GOMEMLIMIT)", humanize.IBytes(uint64(result.GoMemLimit)))
	default:
		logging.Info("  Memory limit:    %s of %s (%.0f%%)",
			humanize.IBytes(uint64(result.GoMemLimit)), humanize.IBytes(uint64(result.ContainerLimit)), result.Ratio*100)
	}
}

// LogMetadataCache logs whether the persistent metadata cache opened.
func LogMetadataCache(path string, entries int, err error) {
	if err != nil {
		logging.Warn("  Metadata cache disabled: %v", err)
		return
	}
	logging.Info("  [OK] Metadata cache %s (%s entries)", path, humanize.Comma(int64(entries)))
}

// LogMetricsServer logs the metrics endpoint.
func LogMetricsServer(addr string) {
	logging.Info("  Metrics:         http://%s/metrics", addr)
}

func orDisabled(s string) string {
	if s == "" {
		return "DISABLED"
	}
	return s
}

func durationString(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	return d.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration value for %s: %q, using default: %s", key, value, durationString(defaultValue))
		return defaultValue
	}
	return parsed
}
