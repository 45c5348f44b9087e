package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type contextKey struct{}

// HeaderName is the request/response header carrying the trace id.
const HeaderName = "X-Trace-ID"

// GenerateTraceID returns a random 128-bit hex id.
func GenerateTraceID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(contextKey{}).(string); ok {
		return traceID
	}
	return ""
}

func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKey{}, traceID)
}

// FromHeaders picks the first non-empty of X-Trace-ID and X-Request-ID, or generates one.
func FromHeaders(traceHeader, requestIDHeader string) string {
	if traceHeader != "" {
		return traceHeader
	}
	if requestIDHeader != "" {
		return requestIDHeader
	}
	return GenerateTraceID()
}
