package cli

import (
	"testing"

	"github.com/andywolf/msccrafter/internal/config"
)

func TestNewService(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.Dir = t.TempDir()

	svc, err := newService(cfg, false)
	if err != nil {
		t.Fatalf("newService failed: %v", err)
	}
	if svc == nil {
		t.Fatal("expected a service")
	}
	if entries := svc.Cached(); len(entries) != 0 {
		t.Errorf("expected empty cache, got %d entries", len(entries))
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"single line", "single line"},
		{"first\nsecond", "first"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := firstLine(tt.input); got != tt.want {
			t.Errorf("firstLine(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
