package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

const TraceIDKey = "trace_id"

// GenerateTraceID returns a fresh random trace id.
func GenerateTraceID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// FromContext extracts the trace_id from the context, if any.
func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithContext attaches the trace_id to the context.
func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// HeaderName is the HTTP header carrying the trace id.
func HeaderName() string {
	return "X-Trace-ID"
}
