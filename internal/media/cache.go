package media

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/metrics"
)

const (
	// DefaultCacheCapacity is the number of thumbnails kept by default.
	DefaultCacheCapacity = 1000
	// DefaultThumbnailSize is the default edge length of the fit box.
	DefaultThumbnailSize = 200
)

// ErrInvalidCapacity is returned for capacities below 1.
var ErrInvalidCapacity = errors.New("cache capacity must be at least 1")

// Key identifies a cached thumbnail. The same path at two sizes is two
// entries.
type Key struct {
	Path string
	Size int
}

// Policy selects which entry is evicted when the cache is full.
type Policy int

const (
	// PolicyFIFO evicts the oldest inserted entry; lookups do not refresh.
	PolicyFIFO Policy = iota
	// PolicyLRU evicts the least recently used entry.
	PolicyLRU
)

func (p Policy) String() string {
	if p == PolicyLRU {
		return "lru"
	}
	return "fifo"
}

// ParsePolicy converts "fifo" or "lru" into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "fifo":
		return PolicyFIFO, nil
	case "lru":
		return PolicyLRU, nil
	}
	return PolicyFIFO, fmt.Errorf("unknown cache policy %q", s)
}

// CacheOptions configures a ThumbnailCache.
type CacheOptions struct {
	Capacity int
	Policy   Policy
	// Decoder loads and scales images on a miss. Defaults to NewDecoder().
	Decoder Decoder
	// DecodeTimeout bounds how long Get waits for a decode. Zero waits
	// indefinitely.
	DecodeTimeout time.Duration
}

// DefaultCacheOptions returns FIFO eviction at DefaultCacheCapacity.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		Capacity: DefaultCacheCapacity,
		Policy:   PolicyFIFO,
	}
}

type cacheEntry struct {
	key    Key
	bitmap *Bitmap
}

// ThumbnailCache is a bounded, concurrency-safe map from Key to Bitmap.
// Lookups and fills go through Get. Decoding runs outside the lock, so two
// goroutines missing on the same key may both decode; the later insert
// replaces the earlier one in place.
type ThumbnailCache struct {
	decoder Decoder
	policy  Policy
	timeout time.Duration

	mu       sync.Mutex
	capacity int
	order    *list.List // front is the next eviction
	items    map[Key]*list.Element
	// gen is bumped by Remove and Clear; a decode started under an older
	// generation is not stored.
	gen uint64
}

// NewThumbnailCache creates a cache. It fails only for a capacity below 1.
func NewThumbnailCache(opts CacheOptions) (*ThumbnailCache, error) {
	if opts.Capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, opts.Capacity)
	}
	if opts.Decoder == nil {
		opts.Decoder = NewDecoder()
	}

	metrics.ThumbnailCacheCapacity.Set(float64(opts.Capacity))
	metrics.ThumbnailCacheEntries.Set(0)

	return &ThumbnailCache{
		decoder:  opts.Decoder,
		policy:   opts.Policy,
		timeout:  opts.DecodeTimeout,
		capacity: opts.Capacity,
		order:    list.New(),
		items:    make(map[Key]*list.Element),
	}, nil
}

// Get returns the thumbnail for path at size, decoding it on a miss. A nil
// result means the image could not be decoded; render a placeholder.
func (c *ThumbnailCache) Get(path string, size int) *Bitmap {
	return c.GetContext(context.Background(), path, size)
}

// GetContext is Get with a deadline. If ctx ends before the decode
// finishes, it returns nil; the decode keeps running and its result is
// still stored for the next caller unless Remove or Clear ran meanwhile.
func (c *ThumbnailCache) GetContext(ctx context.Context, path string, size int) *Bitmap {
	if size < 1 {
		logging.Warn("Thumbnail request for %s with invalid size %d", path, size)
		return nil
	}
	key := Key{Path: path, Size: size}

	if bmp := c.lookup(key); bmp != nil {
		metrics.ThumbnailCacheHits.Inc()
		return bmp
	}
	metrics.ThumbnailCacheMisses.Inc()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if ctx.Done() == nil {
		return c.fill(key)
	}

	done := make(chan *Bitmap, 1)
	go func() { done <- c.fill(key) }()

	select {
	case bmp := <-done:
		return bmp
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.ThumbnailDecodesTotal.WithLabelValues("imaging", "timeout").Inc()
		}
		logging.Warn("Thumbnail decode for %s abandoned: %v", filepath.Base(path), ctx.Err())
		return nil
	}
}

// Peek returns a cached thumbnail without decoding or touching LRU order.
func (c *ThumbnailCache) Peek(path string, size int) *Bitmap {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[Key{Path: path, Size: size}]; ok {
		return el.Value.(*cacheEntry).bitmap
	}
	return nil
}

func (c *ThumbnailCache) lookup(key Key) *Bitmap {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil
	}
	if c.policy == PolicyLRU {
		c.order.MoveToBack(el)
	}
	return el.Value.(*cacheEntry).bitmap
}

// fill decodes outside the lock and inserts the result.
func (c *ThumbnailCache) fill(key Key) *Bitmap {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	img, err := c.decoder.Decode(key.Path, key.Size)
	if err != nil || img == nil {
		logging.Debug("Failed to decode thumbnail for %s: %v", key.Path, err)
		return nil
	}
	bmp := newBitmap(img)
	c.insert(key, bmp, gen)
	return bmp
}

func (c *ThumbnailCache) insert(key Key, bmp *Bitmap, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		logging.Debug("Dropping stale thumbnail for %s", filepath.Base(key.Path))
		return
	}

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).bitmap = bmp
		if c.policy == PolicyLRU {
			c.order.MoveToBack(el)
		}
		return
	}

	for c.order.Len() >= c.capacity {
		c.evictOldest("capacity")
	}
	c.items[key] = c.order.PushBack(&cacheEntry{key: key, bitmap: bmp})
	metrics.ThumbnailCacheEntries.Set(float64(c.order.Len()))
}

// evictOldest must be called with c.mu held.
func (c *ThumbnailCache) evictOldest(reason string) {
	front := c.order.Front()
	if front == nil {
		return
	}
	c.order.Remove(front)
	delete(c.items, front.Value.(*cacheEntry).key)
	metrics.ThumbnailCacheEvictions.WithLabelValues(reason).Inc()
}

// Remove drops every cached size of path and returns how many entries were
// removed.
func (c *ThumbnailCache) Remove(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if entry := el.Value.(*cacheEntry); entry.key.Path == path {
			c.order.Remove(el)
			delete(c.items, entry.key)
			removed++
		}
		el = next
	}
	if removed > 0 {
		metrics.ThumbnailCacheEvictions.WithLabelValues("remove").Add(float64(removed))
		metrics.ThumbnailCacheEntries.Set(float64(c.order.Len()))
	}
	return removed
}

// Clear drops every entry.
func (c *ThumbnailCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	n := c.order.Len()
	c.order.Init()
	c.items = make(map[Key]*list.Element)
	metrics.ThumbnailCacheEvictions.WithLabelValues("clear").Add(float64(n))
	metrics.ThumbnailCacheEntries.Set(0)
}

// Resize changes the capacity. Shrinking evicts the oldest entries at once;
// growing only raises the limit.
func (c *ThumbnailCache) Resize(capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.capacity
	c.capacity = capacity
	for c.order.Len() > c.capacity {
		c.evictOldest("resize")
	}

	metrics.ThumbnailCacheCapacity.Set(float64(capacity))
	metrics.ThumbnailCacheEntries.Set(float64(c.order.Len()))
	logging.Info("Thumbnail cache resized from %d to %d (%d entries)", old, capacity, c.order.Len())
	return nil
}

// Len returns the number of cached thumbnails.
func (c *ThumbnailCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the current limit.
func (c *ThumbnailCache) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// Policy returns the eviction policy.
func (c *ThumbnailCache) Policy() Policy {
	return c.policy
}

// Keys returns the cached keys from next-to-evict to most recent.
func (c *ThumbnailCache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*cacheEntry).key)
	}
	return keys
}
