package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"taskbot/pkg/circuitbreaker"
)

func TestClassifyError(t *testing.T) {
	var syntaxErr error
	{
		var v map[string]any
		syntaxErr = json.Unmarshal([]byte("{oops"), &v)
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "success"},
		{"circuit open", fmt.Errorf("notion: %w", circuitbreaker.ErrCircuitBreakerOpen), "circuit_open"},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), "timeout"},
		{"json syntax", syntaxErr, "decode_error"},
		{"auth", &APIError{Service: "notion", StatusCode: 401}, "auth_error"},
		{"rate limit", &APIError{Service: "openai", StatusCode: 429}, "rate_limited"},
		{"server", fmt.Errorf("query: %w", &APIError{Service: "notion", StatusCode: 502}), "api_5xx"},
		{"bad request", &APIError{Service: "notion", StatusCode: 400}, "api_error"},
		{"other", errors.New("something odd"), "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %q, want %q", got, tt.want)
			}
		})
	}
}
