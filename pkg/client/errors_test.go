package client

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{400, ErrorClassClient},
		{401, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{502, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.want {
				t.Errorf("classifyStatus(%d) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  bool
	}{
		{ErrorClassClient, false},
		{ErrorClassServer, true},
		{ErrorClassRateLimit, true},
		{ErrorClassNetwork, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			if got := shouldRetry(tt.class); got != tt.want {
				t.Errorf("shouldRetry(%s) = %v, want %v", tt.class, got, tt.want)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &APIError{
		StatusCode: 503,
		ErrorClass: ErrorClassServer,
		Message:    "503 Service Unavailable",
		Err:        cause,
	}

	msg := err.Error()
	if !strings.Contains(msg, "503") || !strings.Contains(msg, "server") {
		t.Errorf("unexpected error message: %s", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("APIError should unwrap to its cause")
	}

	noMsg := &APIError{StatusCode: 404, ErrorClass: ErrorClassClient}
	if !strings.Contains(noMsg.Error(), "404") {
		t.Errorf("unexpected error message: %s", noMsg.Error())
	}
}

func TestClassifyError(t *testing.T) {
	apiErr := &APIError{StatusCode: 429, ErrorClass: ErrorClassRateLimit}
	if got := classifyError(apiErr); got != ErrorClassRateLimit {
		t.Errorf("classifyError(APIError) = %s, want %s", got, ErrorClassRateLimit)
	}

	wrapped := fmt.Errorf("request failed: %w", apiErr)
	if got := classifyError(wrapped); got != ErrorClassRateLimit {
		t.Errorf("classifyError(wrapped) = %s, want %s", got, ErrorClassRateLimit)
	}

	if got := classifyError(errors.New("dial tcp: connection refused")); got != ErrorClassNetwork {
		t.Errorf("classifyError(plain) = %s, want %s", got, ErrorClassNetwork)
	}
}
