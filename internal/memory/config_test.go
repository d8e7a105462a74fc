package memory

import (
	"runtime/debug"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"1048576", 1 << 20, false},
		{"1MiB", 1 << 20, false},
		{"2GiB", 2 << 30, false},
		{"512MB", 512_000_000, false},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("parseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConfigureFromEnv(t *testing.T) {
	original := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(original)

	t.Run("nothing set", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		t.Setenv("MEMORY_LIMIT", "")
		result := ConfigureFromEnv()
		if result.Configured || result.Source != "none" {
			t.Errorf("Expected unconfigured, got %+v", result)
		}
	})

	t.Run("MEMORY_LIMIT with default ratio", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		t.Setenv("MEMORY_LIMIT", "1GiB")
		t.Setenv("MEMORY_RATIO", "")
		result := ConfigureFromEnv()
		if !result.Configured || result.Source != "MEMORY_LIMIT" {
			t.Fatalf("Expected MEMORY_LIMIT source, got %+v", result)
		}
		memLimit := int64(1 << 30)
		want := int64(float64(memLimit) * DefaultMemoryRatio)
		if result.GoMemLimit != want {
			t.Errorf("Expected %d, got %d", want, result.GoMemLimit)
		}
	})

	t.Run("custom ratio", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		t.Setenv("MEMORY_LIMIT", "1000")
		t.Setenv("MEMORY_RATIO", "0.5")
		result := ConfigureFromEnv()
		if result.GoMemLimit != 500 || result.Ratio != 0.5 {
			t.Errorf("Expected 500 at 0.5, got %+v", result)
		}
	})

	t.Run("out of range ratio ignored", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		t.Setenv("MEMORY_LIMIT", "1000")
		t.Setenv("MEMORY_RATIO", "1.5")
		result := ConfigureFromEnv()
		if result.Ratio != DefaultMemoryRatio {
			t.Errorf("Expected default ratio, got %v", result.Ratio)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		t.Setenv("MEMORY_LIMIT", "plenty")
		result := ConfigureFromEnv()
		if result.Configured {
			t.Errorf("Expected unconfigured, got %+v", result)
		}
	})
}
