package metrics

import (
	"sync"
	"time"

	"prompt-sorter/internal/logging"
)

// Stats is a point-in-time snapshot of the long-lived components.
type Stats struct {
	CatalogAll       int
	CatalogDisplayed int
	Selected         int
	CacheEntries     int
	CacheCapacity    int
}

// StatsProvider returns the current Stats. Implementations must be safe to
// call from the collector goroutine.
type StatsProvider interface {
	GetStats() Stats
}

// StatsProviderFunc adapts a function to StatsProvider.
type StatsProviderFunc func() Stats

// GetStats calls f.
func (f StatsProviderFunc) GetStats() Stats { return f() }

// Collector periodically copies a StatsProvider into the gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CatalogImages.WithLabelValues("all").Set(float64(stats.CatalogAll))
	CatalogImages.WithLabelValues("displayed").Set(float64(stats.CatalogDisplayed))
	CatalogImages.WithLabelValues("selected").Set(float64(stats.Selected))
	ThumbnailCacheEntries.Set(float64(stats.CacheEntries))
	ThumbnailCacheCapacity.Set(float64(stats.CacheCapacity))

	logging.Debug("Metrics collected: catalog=%d displayed=%d selected=%d cache=%d/%d",
		stats.CatalogAll, stats.CatalogDisplayed, stats.Selected, stats.CacheEntries, stats.CacheCapacity)
}
