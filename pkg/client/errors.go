package client

import (
	"errors"
	"fmt"
)

var (
	// ErrRetryExhausted is returned when a request keeps failing after the
	// configured number of retry attempts.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the request context is cancelled
	// while waiting between retry attempts.
	ErrContextCancelled = errors.New("context cancelled during retry")
)

// ErrorClass categorizes failures for retry and metrics purposes.
type ErrorClass string

const (
	// ErrorClassClient covers 4xx responses other than 429. These indicate a
	// problem with the request itself and are never retried.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer covers 5xx responses. Retried with backoff.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit covers 429 responses. Retried with a longer backoff
	// to give the quota window time to reset.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork covers transport-level failures (connection refused,
	// timeouts, circuit breaker rejections). Retried with backoff.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError describes a failed response from the listings API.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("listings API error (status %d, class %s): %s", e.StatusCode, e.ErrorClass, e.Message)
	}
	return fmt.Sprintf("listings API error (status %d, class %s)", e.StatusCode, e.ErrorClass)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == 429:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// shouldRetry reports whether failures of the given class are worth retrying.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// classifyError determines the error class of a failed attempt. APIError
// carries its class explicitly; anything else is a transport failure.
func classifyError(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return ErrorClassNetwork
}
