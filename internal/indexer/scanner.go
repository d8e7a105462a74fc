package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"prompt-sorter/internal/filesystem"
	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/media"
	"prompt-sorter/internal/memory"
	"prompt-sorter/internal/metrics"
	"prompt-sorter/internal/workers"
)

var (
	// ErrRootNotFound is reported when the scan root is missing or is not
	// a directory.
	ErrRootNotFound = errors.New("scan root not found")
	// ErrNotIdle is returned by Start while a scan is running.
	ErrNotIdle = errors.New("scan already in progress")
)

const defaultEventBuffer = 64

// State is the lifecycle of a scan.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateCompleted
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateCompleted:
		return "completed"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Terminal reports whether no further events follow.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateStopped || s == StateFailed
}

// EventKind discriminates Event.
type EventKind int

const (
	// EventProgress carries Loaded and Total.
	EventProgress EventKind = iota
	// EventThumbnail carries Path and Index for a file now in the cache.
	EventThumbnail
	// EventFinished is the last event of a completed or stopped scan and
	// carries Paths and State.
	EventFinished
	// EventError is the only event of a failed scan and carries Err.
	EventError
)

// Event is one message on the channel returned by Start.
type Event struct {
	Kind   EventKind
	ScanID string

	Loaded int
	Total  int

	Path  string
	Index int

	Paths []string
	State State

	Err error
}

// Cache is the part of media.ThumbnailCache the scanner needs.
type Cache interface {
	GetContext(ctx context.Context, path string, size int) *media.Bitmap
}

// Options configures a Scanner.
type Options struct {
	// Workers is the pool size. Zero uses workers.ForScan().
	Workers int
	// TaskTimeout bounds each thumbnail request. Zero means no limit.
	TaskTimeout time.Duration
	// Memory, when set, is waited on before each decode.
	Memory *memory.Monitor
	// SkipHidden ignores files and directories starting with ".".
	SkipHidden bool
	// EventBuffer sizes the event channel.
	EventBuffer int
}

// Scanner loads thumbnails for every supported image under a folder using
// a bounded worker pool. A Scanner runs one scan at a time and may be
// restarted once the previous scan has reached a terminal state.
type Scanner struct {
	cache Cache
	opts  Options

	stopped atomic.Bool

	mu      sync.Mutex
	state   State
	id      string
	cancel  context.CancelFunc
	done    chan struct{}
	results []string
	err     error
}

// NewScanner creates an idle scanner that fills cache.
func NewScanner(cache Cache, opts Options) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = workers.ForScan()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	done := make(chan struct{})
	close(done)
	return &Scanner{cache: cache, opts: opts, done: done}
}

// Start begins scanning root at the given thumbnail size and returns the
// event stream. The channel is closed after the terminal event; callers
// must drain it. Cancelling ctx has the same effect as Stop.
//
// A missing root is not returned here: it is reported once as an
// EventError and by Wait.
func (s *Scanner) Start(ctx context.Context, root string, size int) (<-chan Event, error) {
	s.mu.Lock()
	if s.state == StateScanning {
		s.mu.Unlock()
		return nil, ErrNotIdle
	}

	ctx, cancel := context.WithCancel(ctx)
	s.state = StateScanning
	s.id = uuid.NewString()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.results = nil
	s.err = nil
	s.stopped.Store(false)
	id, done := s.id, s.done
	s.mu.Unlock()

	events := make(chan Event, s.opts.EventBuffer)
	go s.run(ctx, cancel, id, root, size, events, done)
	return events, nil
}

// Stop requests cancellation. Files not yet started are skipped, decodes
// already running are left to finish in the background, and results that
// arrive after the request are discarded.
func (s *Scanner) Stop() {
	s.stopped.Store(true)
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current scan reaches a terminal state and returns
// the loaded paths. The error is non-nil only for a failed scan.
func (s *Scanner) Wait() ([]string, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.results...), s.err
}

// State returns the current lifecycle state.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID returns the identifier of the current or last scan.
func (s *Scanner) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

type scanResult struct {
	path string
	ok   bool
}

func (s *Scanner) run(ctx context.Context, cancel context.CancelFunc, id, root string, size int, events chan<- Event, done chan struct{}) {
	start := time.Now()
	metrics.ScanInFlight.Inc()
	defer metrics.ScanInFlight.Dec()
	defer close(done)
	defer close(events)
	defer cancel()

	info, err := filesystem.StatWithRetry(root, filesystem.DefaultRetryConfig())
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("not a directory")
	}
	if err != nil {
		scanErr := fmt.Errorf("%w: %s: %v", ErrRootNotFound, root, err)
		logging.Error("Scan %s failed: %v", id, scanErr)
		s.finish(StateFailed, nil, scanErr, start)
		events <- Event{Kind: EventError, ScanID: id, Err: scanErr}
		return
	}

	logging.Info("Scan %s started: %s (size %d, %d workers)", id, root, size, s.opts.Workers)

	paths := enumerate(ctx, root, s.opts.SkipHidden, s.stopped.Load)
	total := len(paths)
	logging.Debug("Scan %s found %d images", id, total)
	events <- Event{Kind: EventProgress, ScanID: id, Loaded: 0, Total: total}

	jobs := make(chan string)
	results := make(chan scanResult, s.opts.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- scanResult{path: path, ok: s.load(ctx, path, size)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range paths {
			if s.stopped.Load() {
				return
			}
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var loadedPaths []string
	processed := 0
	for r := range results {
		if s.stopped.Load() || ctx.Err() != nil {
			continue
		}
		processed++
		if r.ok {
			loadedPaths = append(loadedPaths, r.path)
			metrics.ScanFilesTotal.WithLabelValues("loaded").Inc()
			events <- Event{Kind: EventThumbnail, ScanID: id, Path: r.path, Index: len(loadedPaths) - 1}
		} else {
			metrics.ScanFilesTotal.WithLabelValues("skipped").Inc()
			logging.Debug("Scan %s skipped %s", id, filepath.Base(r.path))
		}
		events <- Event{Kind: EventProgress, ScanID: id, Loaded: processed, Total: total}
	}

	state := StateCompleted
	if s.stopped.Load() || ctx.Err() != nil {
		state = StateStopped
	}
	s.finish(state, loadedPaths, nil, start)
	logging.Info("Scan %s %s: %d of %d images loaded in %v", id, state, len(loadedPaths), total, time.Since(start).Round(time.Millisecond))
	events <- Event{Kind: EventFinished, ScanID: id, Paths: append([]string(nil), loadedPaths...), State: state}
}

// load ensures one thumbnail is cached. It reports false for a skipped,
// timed-out or undecodable file.
func (s *Scanner) load(ctx context.Context, path string, size int) bool {
	if s.stopped.Load() || ctx.Err() != nil {
		return false
	}
	if err := s.opts.Memory.Wait(ctx); err != nil {
		return false
	}

	metrics.ScanWorkersBusy.Inc()
	defer metrics.ScanWorkersBusy.Dec()

	taskCtx := ctx
	if s.opts.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, s.opts.TaskTimeout)
		defer cancel()
	}
	return s.cache.GetContext(taskCtx, path, size) != nil
}

func (s *Scanner) finish(state State, results []string, err error, start time.Time) {
	s.mu.Lock()
	s.state = state
	s.results = results
	s.err = err
	s.cancel = nil
	s.mu.Unlock()

	metrics.ScanRunsTotal.WithLabelValues(state.String()).Inc()
	metrics.ScanDuration.Observe(time.Since(start).Seconds())
}
