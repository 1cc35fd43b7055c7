package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"taskbot/pkg/circuitbreaker"
)

// ClassifyError returns a short, low-cardinality label for err, used in log
// fields and metric labels. nil yields "success".
func ClassifyError(err error) string {
	if err == nil {
		return "success"
	}

	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		return "circuit_open"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "context_canceled"
	}

	// JSON decode errors（数据格式错误）
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return "decode_error"
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return "db_no_rows"
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return "auth_error"
		case apiErr.StatusCode == 429:
			return "rate_limited"
		case apiErr.StatusCode >= 500:
			return "api_5xx"
		default:
			return "api_error"
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "network_timeout"
		}
		return "network_error"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "network_error"
	}

	if strings.Contains(err.Error(), "json:") {
		return "decode_error"
	}
	return "unknown_error"
}

// APIError is returned by the HTTP adapters when a collaborator answers with a
// non-2xx status.
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return e.Service + " returned status " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}
