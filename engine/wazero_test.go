package engine

import (
	"testing"

	"github.com/wippyai/argon2-engine/backend"
)

func TestConfig_MemoryLimitPages(t *testing.T) {
	tests := []struct {
		name    string
		costKiB uint32
		want    uint32
	}{
		{"zero means platform maximum", 0, maxPages},
		{"default working set", 1024, 16 + reservedPages},
		{"sub-page request rounds up", 8, 1 + reservedPages},
		{"exact page boundary", 64, 1 + reservedPages},
		{"one past the boundary", 65, 2 + reservedPages},
		{"near ceiling clamps instead of crashing", 4 * 1024 * 1024, maxPages},
		{"maximum uint32 clamps", ^uint32(0), maxPages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{MemoryCostKiB: tt.costKiB}
			if got := cfg.MemoryLimitPages(); got != tt.want {
				t.Errorf("MemoryLimitPages() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfig_MemoryLimitPages_Margin(t *testing.T) {
	// The reserved margin must sit above the requested working set for
	// every non-clamped request.
	for _, costKiB := range []uint32{8, 64, 1024, 65536} {
		cfg := Config{MemoryCostKiB: costKiB}
		working := (costKiB + pageSizeKiB - 1) / pageSizeKiB
		if got := cfg.MemoryLimitPages(); got < working+reservedPages {
			t.Errorf("MemoryLimitPages(%d KiB) = %d, below working set %d + margin %d",
				costKiB, got, working, reservedPages)
		}
	}
}

func TestRuntimeConfigPerKind(t *testing.T) {
	// Both kinds must produce a usable runtime config; the distinction
	// that matters here is that building one never panics and the page
	// limit carries through construction.
	for _, kind := range []backend.Kind{backend.Primary, backend.Fallback} {
		cfg := Config{Kind: kind, MemoryCostKiB: 1024, EnableThreads: kind == backend.Primary}
		if rc := runtimeConfig(cfg); rc == nil {
			t.Errorf("runtimeConfig(%v) returned nil", kind)
		}
	}
}
