// Package ratelimit implements request-quota tracking and request gating for
// the listings API. It monitors the X-RateLimit-Remaining and
// X-RateLimit-Reset response headers so aggressive prefetching never runs a
// client into a hard 429 lockout.
package ratelimit

import (
	"time"
)

// Redis keys for quota state storage.
const (
	RedisKeyRemaining      = "listings:rate_limit:remaining"
	RedisKeyResetTimestamp = "listings:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "listings:rate_limit:last_update"
)

// Thresholds for quota decisions.
const (
	// ThresholdCritical blocks all requests when the remaining quota falls
	// below this value. Prefetches are not worth a lockout.
	ThresholdCritical = 5

	// ThresholdWarning applies throttling when the remaining quota falls
	// below this value, slowing request rate before it becomes critical.
	ThresholdWarning = 20

	// ThresholdHealthy indicates normal operation. At or above this value no
	// restrictions apply.
	ThresholdHealthy = 50
)

// QuotaState represents the current request quota as reported by the API.
// The state is shared across all client instances via Redis.
type QuotaState struct {
	// Remaining is the number of requests left in the current quota window.
	// Extracted from the X-RateLimit-Remaining header.
	Remaining int `json:"remaining"`

	// ResetAt is the timestamp when the quota window resets.
	// Calculated from the X-RateLimit-Reset header (seconds until reset).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is the timestamp when this state was last updated.
	// Used to detect stale state.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= ThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *QuotaState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *QuotaState) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical
}

// NeedsThrottling returns true if requests should be throttled.
func (s *QuotaState) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the quota window resets.
// Returns 0 if the reset time has already passed.
func (s *QuotaState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on the current Remaining.
func (s *QuotaState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}
