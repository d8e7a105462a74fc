package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv("SCAN_WORKERS", "")
	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{"CPU-bound", 1.0, 0, 1, availableCPU},
		{"I/O-bound", 2.0, 0, 1, availableCPU * 2},
		{"limit lower than calculated", 2.0, 2, 1, 2},
		{"very low multiplier", 0.01, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, expected in [%d, %d]",
					tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		limit    int
		expected int
	}{
		{"override used", "7", 0, 7},
		{"override clamped to limit", "12", 5, 5},
		{"invalid override ignored", "abc", 1, 1},
		{"negative override ignored", "-3", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCAN_WORKERS", tt.env)
			if got := Count(1.0, tt.limit); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestForScan(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("SCAN_WORKERS", "")
		if got := ForScan(); got != DefaultScanWorkers {
			t.Errorf("Expected %d, got %d", DefaultScanWorkers, got)
		}
	})

	t.Run("override", func(t *testing.T) {
		t.Setenv("SCAN_WORKERS", "2")
		if got := ForScan(); got != 2 {
			t.Errorf("Expected 2, got %d", got)
		}
	})

	t.Run("zero ignored", func(t *testing.T) {
		t.Setenv("SCAN_WORKERS", "0")
		if got := ForScan(); got != DefaultScanWorkers {
			t.Errorf("Expected %d, got %d", DefaultScanWorkers, got)
		}
	})
}

func TestHelpersRespectLimit(t *testing.T) {
	t.Setenv("SCAN_WORKERS", "")
	if got := ForCPU(1); got != 1 {
		t.Errorf("ForCPU(1) = %d, want 1", got)
	}
	if got := ForIO(1); got != 1 {
		t.Errorf("ForIO(1) = %d, want 1", got)
	}
}
