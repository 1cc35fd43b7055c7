package trace

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

const headerName = "X-Trace-ID"

// GenerateTraceID returns a random UUID.
func GenerateTraceID() string {
	return uuid.New().String()
}

// FromContext returns the trace id stored in ctx, or "".
func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(ctxKey{}).(string); ok {
		return traceID
	}
	return ""
}

// WithContext stores traceID in ctx.
func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, traceID)
}

// Ensure returns ctx unchanged if it already carries a trace id, otherwise
// a child context with a freshly generated one.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := GenerateTraceID()
	return WithContext(ctx, id), id
}

// HeaderName is the HTTP header used to pass trace ids to and from the ops API.
func HeaderName() string {
	return headerName
}
