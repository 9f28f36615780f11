package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// TraceIDContextKey holds the run or request id in a context
const TraceIDContextKey contextKey = "trace_id"

// GenerateTraceID creates a new run identifier using UUID v4.
// Every batch run and every HTTP request gets one so log lines can be correlated.
func GenerateTraceID() string {
	return uuid.New().String()
}

// WithTraceID stores traceID in ctx
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the id stored by WithTraceID, falling back to the
// trace id of the active OpenTelemetry span.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDContextKey).(string); ok && traceID != "" {
		return traceID
	}
	return TraceIDFromContext(ctx)
}

// EnsureTraceID returns ctx unchanged if it already carries a trace id,
// otherwise a child context with a fresh one.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, GenerateTraceID())
}
