package shared

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type for values this package stores in a request context.
type ContextKey string

// TraceIDKey is the context key under which the per-request trace ID lives.
const TraceIDKey ContextKey = "traceID"

// SetTraceID stamps a fresh trace ID onto the context. The trace ID ties a
// client-visible error response to the server-side log lines for the same
// request.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, uuid.NewString())
}

// GetTraceID returns the trace ID carried by the context, or the empty
// string for a request that never passed through the trace middleware.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}
