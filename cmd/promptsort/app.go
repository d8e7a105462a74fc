package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prompt-sorter/internal/catalog"
	"prompt-sorter/internal/database"
	"prompt-sorter/internal/fileops"
	"prompt-sorter/internal/filesystem"
	"prompt-sorter/internal/indexer"
	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/media"
	"prompt-sorter/internal/memory"
	"prompt-sorter/internal/metadata"
	"prompt-sorter/internal/middleware"
	"prompt-sorter/internal/metrics"
	"prompt-sorter/internal/startup"
)

const (
	collectInterval = 15 * time.Second
	shutdownTimeout = 5 * time.Second
)

// app holds the long-lived components of one command invocation. The
// catalog and file service are only touched from the command goroutine.
type app struct {
	cfg       *startup.Config
	cache     *media.ThumbnailCache
	extractor metadata.Extractor
	db        *database.Database
	monitor   *memory.Monitor
	scanner   *indexer.Scanner
	catalog   *catalog.Catalog
	files     *fileops.Service
	collector *metrics.Collector
	server    *http.Server

	// stats is the last catalog snapshot published by the command
	// goroutine for the metrics collector.
	stats atomic.Pointer[metrics.Stats]
}

// openApp loads configuration from the environment and builds the app.
func openApp(ctx context.Context) (*app, error) {
	startup.LogSystemInfo()
	startup.LogMemoryConfig(memory.ConfigureFromEnv())

	cfg, err := startup.LoadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}

func newApp(ctx context.Context, cfg *startup.Config) (*app, error) {
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	if cfg.VipsEnabled {
		media.InitVips()
	}

	policy, err := media.ParsePolicy(cfg.CachePolicy)
	if err != nil {
		return nil, err
	}
	cache, err := media.NewThumbnailCache(media.CacheOptions{
		Capacity:      cfg.CacheSize,
		Policy:        policy,
		DecodeTimeout: cfg.DecodeTimeout,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		cache:     cache,
		extractor: metadata.NewParser(),
		files:     fileops.NewService(),
	}
	a.stats.Store(&metrics.Stats{})

	if cfg.MetadataDB != "" {
		db, err := database.New(ctx, cfg.MetadataDB)
		if err != nil {
			startup.LogMetadataCache(cfg.MetadataDB, 0, err)
		} else {
			entries, err := db.CountMetadata(ctx)
			startup.LogMetadataCache(cfg.MetadataDB, entries, err)
			a.db = db
			a.extractor = metadata.NewCachedExtractor(a.extractor, db, 0)
		}
	}

	a.monitor = memory.NewMonitor(memory.DefaultConfig())
	a.monitor.Start()

	a.catalog = catalog.New(a.extractor, cfg.SortOrder)
	a.scanner = indexer.NewScanner(cache, indexer.Options{
		Workers:     cfg.ScanWorkers,
		TaskTimeout: cfg.DecodeTimeout,
		Memory:      a.monitor,
		SkipHidden:  cfg.SkipHidden,
	})

	a.collector = metrics.NewCollector(metrics.StatsProviderFunc(a.currentStats), collectInterval)
	a.collector.Start()

	if cfg.MetricsAddr != "" {
		a.server = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           a.setupRouter(),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
		startup.LogMetricsServer(cfg.MetricsAddr)
	}

	return a, nil
}

func (a *app) setupRouter() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", a.healthCheck).Methods("GET")
	r.HandleFunc("/healthz", a.healthCheck).Methods("GET")
	r.Use(middleware.Metrics, middleware.Logger(middleware.DefaultLoggingConfig()))
	return r
}

func (a *app) healthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := a.currentStats()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":        "ok",
		"version":       startup.GetBuildInfo(),
		"scan":          a.scanner.State().String(),
		"cacheEntries":  stats.CacheEntries,
		"cacheCapacity": stats.CacheCapacity,
		"images":        stats.CatalogAll,
	}); err != nil {
		logging.Debug("health response: %v", err)
	}
}

// publish snapshots the catalog for the collector. Call it from the
// command goroutine after every catalog change.
func (a *app) publish() {
	a.stats.Store(&metrics.Stats{
		CatalogAll:       len(a.catalog.All()),
		CatalogDisplayed: a.catalog.Len(),
		Selected:         len(a.catalog.SelectionOrder()),
	})
}

func (a *app) currentStats() metrics.Stats {
	s := *a.stats.Load()
	s.CacheEntries = a.cache.Len()
	s.CacheCapacity = a.cache.Capacity()
	return s
}

// forget drops cached thumbnails and metadata for paths that no longer
// exist at their old location.
func (a *app) forget(ctx context.Context, paths []string) {
	for _, p := range paths {
		a.cache.Remove(p)
	}
	if a.db == nil || len(paths) == 0 {
		return
	}
	if n, err := a.db.DeleteMetadata(ctx, paths); err != nil {
		logging.Warn("Failed to drop cached metadata: %v", err)
	} else {
		logging.Debug("Dropped %d cached metadata rows", n)
	}
}

func (a *app) close() {
	if a.scanner != nil && a.scanner.State() == indexer.StateScanning {
		a.scanner.Stop()
		_, _ = a.scanner.Wait()
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.server.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
		cancel()
	}
	if a.collector != nil {
		a.collector.Stop()
	}
	a.monitor.Stop()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Warn("Failed to close metadata cache: %v", err)
		}
	}
	if media.IsVipsAvailable() {
		media.ShutdownVips()
	}
}
