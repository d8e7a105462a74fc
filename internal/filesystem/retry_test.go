package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	mu       sync.Mutex
	ops      []string
	attempts int
	success  int
	failures int
	stale    int
}

func (r *recordingObserver) ObserveOperation(op string, _ float64, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}
func (r *recordingObserver) ObserveRetryAttempt(string) { r.mu.Lock(); r.attempts++; r.mu.Unlock() }
func (r *recordingObserver) ObserveRetrySuccess(string) { r.mu.Lock(); r.success++; r.mu.Unlock() }
func (r *recordingObserver) ObserveRetryFailure(string) { r.mu.Lock(); r.failures++; r.mu.Unlock() }
func (r *recordingObserver) ObserveStaleError(string)   { r.mu.Lock(); r.stale++; r.mu.Unlock() }

func fastConfig() RetryConfig {
	return RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()
	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
}

func TestIsStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ESTALE", syscall.ESTALE, true},
		{"wrapped ESTALE", fmt.Errorf("stat x: %w", syscall.ESTALE), true},
		{"path error with ESTALE", &os.PathError{Op: "open", Path: "x", Err: syscall.ESTALE}, true},
		{"ENOENT", syscall.ENOENT, false},
		{"not exist", os.ErrNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStaleError(tt.err); got != tt.want {
				t.Errorf("isStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetryRecoversFromStale(t *testing.T) {
	obs := &recordingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	calls := 0
	got, err := withRetry("stat", "x", fastConfig(), func() (int, error) {
		calls++
		if calls < 2 {
			return 0, syscall.ESTALE
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if got != 42 || calls != 2 {
		t.Errorf("Expected 42 after 2 calls, got %d after %d", got, calls)
	}
	if obs.stale != 1 || obs.attempts != 1 || obs.success != 1 {
		t.Errorf("Unexpected observer counts: stale=%d attempts=%d success=%d", obs.stale, obs.attempts, obs.success)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	obs := &recordingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	calls := 0
	_, err := withRetry("open", "x", fastConfig(), func() (struct{}, error) {
		calls++
		return struct{}{}, syscall.ESTALE
	})
	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("Expected ESTALE, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if obs.failures != 1 {
		t.Errorf("Expected 1 failure, got %d", obs.failures)
	}
}

func TestWithRetryNoRetryOnOtherErrors(t *testing.T) {
	calls := 0
	_, err := withRetry("stat", "x", fastConfig(), func() (int, error) {
		calls++
		return 0, os.ErrPermission
	})
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("Expected permission error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single call, got %d", calls)
	}
}

func TestWrappers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(file, fastConfig())
	if err != nil || info.Size() != 1 {
		t.Fatalf("StatWithRetry: %v, %v", info, err)
	}

	f, err := OpenWithRetry(file, fastConfig())
	if err != nil {
		t.Fatalf("OpenWithRetry: %v", err)
	}
	f.Close()

	entries, err := ReadDirWithRetry(dir, fastConfig())
	if err != nil || len(entries) != 1 {
		t.Fatalf("ReadDirWithRetry: %v, %v", entries, err)
	}

	if !Exists(file) {
		t.Error("Expected file to exist")
	}
	if Exists(filepath.Join(dir, "missing.png")) {
		t.Error("Expected missing file not to exist")
	}
	if _, err := StatWithRetry(filepath.Join(dir, "missing.png"), fastConfig()); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
