package ratelimit

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestUpdateFromHeaders_InvalidHeaders(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(nil, logger)

	tests := []struct {
		name         string
		remainHeader string
		resetHeader  string
		shouldError  bool
	}{
		{
			name:         "missing remaining header",
			remainHeader: "",
			resetHeader:  "60",
			shouldError:  false, // Should return nil for missing headers
		},
		{
			name:         "invalid remaining header",
			remainHeader: "invalid",
			resetHeader:  "60",
			shouldError:  true,
		},
		{
			name:         "invalid reset header",
			remainHeader: "100",
			resetHeader:  "invalid",
			shouldError:  true,
		},
		{
			name:         "reset header missing",
			remainHeader: "100",
			resetHeader:  "",
			shouldError:  true,
		},
		{
			name:         "both headers missing",
			remainHeader: "",
			resetHeader:  "",
			shouldError:  false, // Should return nil for missing headers
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.remainHeader != "" {
				headers.Set("X-RateLimit-Remaining", tt.remainHeader)
			}
			if tt.resetHeader != "" {
				headers.Set("X-RateLimit-Reset", tt.resetHeader)
			}

			err := tracker.UpdateFromHeaders(context.Background(), headers)

			if tt.shouldError && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestShouldAllowRequest_Logic(t *testing.T) {
	tests := []struct {
		name           string
		remaining      int
		expectBlock    bool
		expectThrottle bool
	}{
		{
			name:           "healthy - allow immediately",
			remaining:      100,
			expectBlock:    false,
			expectThrottle: false,
		},
		{
			name:           "at healthy threshold - allow immediately",
			remaining:      ThresholdHealthy,
			expectBlock:    false,
			expectThrottle: false,
		},
		{
			name:           "warning - allow with throttle",
			remaining:      15,
			expectBlock:    false,
			expectThrottle: true,
		},
		{
			name:           "critical - block",
			remaining:      3,
			expectBlock:    true,
			expectThrottle: false,
		},
		{
			name:           "at critical threshold - allow",
			remaining:      ThresholdCritical,
			expectBlock:    false,
			expectThrottle: true, // Still in warning range
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &QuotaState{
				Remaining:  tt.remaining,
				ResetAt:    time.Now().Add(60 * time.Second),
				LastUpdate: time.Now(),
			}
			state.UpdateHealth()

			shouldBlock := state.NeedsCriticalBlock()
			shouldThrottle := state.NeedsThrottling()

			if shouldBlock != tt.expectBlock {
				t.Errorf("NeedsCriticalBlock() = %v, want %v (remaining=%d)", shouldBlock, tt.expectBlock, tt.remaining)
			}

			if shouldThrottle != tt.expectThrottle {
				t.Errorf("NeedsThrottling() = %v, want %v (remaining=%d)", shouldThrottle, tt.expectThrottle, tt.remaining)
			}
		})
	}
}
