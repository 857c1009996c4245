package publisher_test

import (
	"testing"

	"github.com/nepcscore/services/live-scoring/internal/publisher"
)

func TestStreamKey(t *testing.T) {
	tests := []struct {
		sport string
		want  string
	}{
		{"", "scores.updates.cricket"},
		{"cricket", "scores.updates.cricket"},
		{"cricket_t20", "scores.updates.cricket_t20"},
	}

	for _, tt := range tests {
		if got := publisher.StreamKey(tt.sport); got != tt.want {
			t.Errorf("StreamKey(%q) = %q, want %q", tt.sport, got, tt.want)
		}
	}
}
