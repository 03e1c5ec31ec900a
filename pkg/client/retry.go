package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig controls the backoff behavior for a single error class.
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the baseline retry settings used when no
// class-specific override applies.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryConfigForErrorClass returns the retry settings for a specific error
// class. Rate limit responses back off longer than ordinary server errors so
// the quota window has time to reset.
func RetryConfigForErrorClass(class ErrorClass) RetryConfig {
	cfg := DefaultRetryConfig()
	switch class {
	case ErrorClassRateLimit:
		cfg.InitialBackoff = 5 * time.Second
		cfg.MaxBackoff = 60 * time.Second
	case ErrorClassNetwork:
		cfg.InitialBackoff = 250 * time.Millisecond
	}
	return cfg
}

// addJitter randomizes a backoff duration by +/-20% to avoid thundering herds
// when many clients retry at once.
func addJitter(d time.Duration) time.Duration {
	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(d) * jitter)
}

// retryWithBackoff runs fn until it succeeds, fails with a non-retriable
// error, or exhausts the attempt budget. The classifier maps each failure to
// an error class, which selects the backoff schedule for that attempt.
func retryWithBackoff(ctx context.Context, logger zerolog.Logger, fn func() error, classify func(error) ErrorClass) error {
	maxAttempts := DefaultRetryConfig().MaxAttempts
	var lastErr error
	var lastClass ErrorClass

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().Int("attempt", attempt).Msg("request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		lastClass = classify(err)
		if !shouldRetry(lastClass) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		cfg := RetryConfigForErrorClass(lastClass)
		backoff := cfg.InitialBackoff
		for i := 1; i < attempt; i++ {
			backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		}
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
		backoff = addJitter(backoff)

		retriesTotal.WithLabelValues(string(lastClass)).Inc()
		retryBackoffSeconds.WithLabelValues(string(lastClass)).Observe(backoff.Seconds())
		logger.Warn().
			Err(err).
			Str("error_class", string(lastClass)).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("request failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(backoff):
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, maxAttempts, lastErr)
}
