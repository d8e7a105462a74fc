package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/mediatypes"
	"prompt-sorter/internal/metadata"
	"prompt-sorter/internal/metrics"
	"prompt-sorter/internal/workers"
)

// Mode combines filter terms.
type Mode int

const (
	// ModeOr keeps a path when any term matches.
	ModeOr Mode = iota
	// ModeAnd keeps a path only when every term matches.
	ModeAnd
)

func (m Mode) String() string {
	if m == ModeAnd {
		return "and"
	}
	return "or"
}

// Catalog holds the full list of scanned images and the filtered, sorted
// list on display. It is owned by one goroutine and is not safe for
// concurrent use.
type Catalog struct {
	extractor metadata.Extractor
	stat      func(string) (os.FileInfo, error)

	all       []string
	displayed []string
	key       mediatypes.SortKey

	selection []string
}

// New creates an empty catalog. Metadata for filtering is read through
// extractor on every Filter call.
func New(extractor metadata.Extractor, key mediatypes.SortKey) *Catalog {
	if key == "" {
		key = mediatypes.DefaultSortKey
	}
	return &Catalog{extractor: extractor, stat: os.Stat, key: key}
}

// Set replaces the catalog contents, resets any filter and returns the
// display list sorted by the current key. Duplicates are dropped.
func (c *Catalog) Set(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	all := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		all = append(all, p)
	}
	c.all = all
	c.displayed = append([]string(nil), all...)
	return c.Sort(c.key)
}

// ParseTerms splits a comma-separated query into trimmed, non-empty terms.
func ParseTerms(query string) []string {
	var terms []string
	for _, t := range strings.Split(query, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// FilterQuery is Filter with a comma-separated term list.
func (c *Catalog) FilterQuery(query string, mode Mode) []string {
	return c.Filter(ParseTerms(query), mode)
}

// Filter rebuilds the display list from the full catalog, keeping paths
// whose metadata text contains the terms case-insensitively, then applies
// the current sort. No terms means no filter.
func (c *Catalog) Filter(terms []string, mode Mode) []string {
	start := time.Now()
	defer func() { metrics.CatalogFilterDuration.Observe(time.Since(start).Seconds()) }()

	needles := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			needles = append(needles, t)
		}
	}

	if len(needles) == 0 {
		c.displayed = append([]string(nil), c.all...)
		return c.Sort(c.key)
	}

	texts := c.metadataTexts(c.all)
	displayed := make([]string, 0, len(c.all))
	for i, p := range c.all {
		if matches(texts[i], needles, mode) {
			displayed = append(displayed, p)
		}
	}
	c.displayed = displayed

	logging.Debug("Filter %v (%s) kept %d of %d images", needles, mode, len(displayed), len(c.all))
	return c.Sort(c.key)
}

func matches(text string, needles []string, mode Mode) bool {
	if mode == ModeAnd {
		for _, n := range needles {
			if !strings.Contains(text, n) {
				return false
			}
		}
		return true
	}
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// metadataTexts extracts the lowercased metadata text for every path using
// a small pool of readers. Results are positional.
func (c *Catalog) metadataTexts(paths []string) []string {
	texts := make([]string, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := workers.ForIO(8); w > 0; w-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				texts[i] = strings.ToLower(c.extractor.Extract(paths[i]).Text())
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return texts
}

// Sort orders the display list by key and returns it. Files that no longer
// exist are dropped from the catalog. Sorting twice by the same key gives
// the same list.
func (c *Catalog) Sort(key mediatypes.SortKey) []string {
	if key == "" {
		key = mediatypes.DefaultSortKey
	}
	c.key = key

	type entry struct {
		path  string
		name  string
		mtime time.Time
	}

	entries := make([]entry, 0, len(c.displayed))
	var missing []string
	for _, p := range c.displayed {
		info, err := c.stat(p)
		if err != nil {
			missing = append(missing, p)
			continue
		}
		entries = append(entries, entry{path: p, name: strings.ToLower(filepath.Base(p)), mtime: info.ModTime()})
	}

	less := func(a, b entry) bool {
		if key.ByDate() {
			if !a.mtime.Equal(b.mtime) {
				return a.mtime.Before(b.mtime)
			}
		} else if a.name != b.name {
			return a.name < b.name
		}
		return a.path < b.path
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if key.Descending() {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})

	c.displayed = make([]string, len(entries))
	for i, e := range entries {
		c.displayed[i] = e.path
	}

	if len(missing) > 0 {
		logging.Debug("Dropping %d missing files from catalog", len(missing))
		c.all = without(c.all, missing)
	}
	c.sync()
	return c.Displayed()
}

// SortKey returns the key last applied.
func (c *Catalog) SortKey() mediatypes.SortKey {
	return c.key
}

// Remove deletes paths from both lists without re-filtering or re-sorting
// and returns how many were in the catalog.
func (c *Catalog) Remove(paths []string) int {
	before := len(c.all)
	c.all = without(c.all, paths)
	c.displayed = without(c.displayed, paths)
	c.sync()
	return before - len(c.all)
}

// Displayed returns a copy of the display list.
func (c *Catalog) Displayed() []string {
	return append([]string(nil), c.displayed...)
}

// All returns a copy of the full list in insertion order.
func (c *Catalog) All() []string {
	return append([]string(nil), c.all...)
}

// Len returns the size of the full list.
func (c *Catalog) Len() int {
	return len(c.all)
}

func without(list, remove []string) []string {
	if len(remove) == 0 {
		return list
	}
	drop := make(map[string]bool, len(remove))
	for _, p := range remove {
		drop[p] = true
	}
	out := list[:0:0]
	for _, p := range list {
		if !drop[p] {
			out = append(out, p)
		}
	}
	return out
}

// sync prunes the selection to the display list and updates gauges.
func (c *Catalog) sync() {
	c.selection = keep(c.selection, c.displayed)
	metrics.CatalogImages.WithLabelValues("all").Set(float64(len(c.all)))
	metrics.CatalogImages.WithLabelValues("displayed").Set(float64(len(c.displayed)))
	metrics.CatalogImages.WithLabelValues("selected").Set(float64(len(c.selection)))
}

func keep(list, allowed []string) []string {
	ok := make(map[string]bool, len(allowed))
	for _, p := range allowed {
		ok[p] = true
	}
	out := list[:0:0]
	for _, p := range list {
		if ok[p] {
			out = append(out, p)
		}
	}
	return out
}
