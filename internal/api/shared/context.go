package shared

import (
	"context"
	"encoding/hex"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ContextKey is the type of request-scoped values set by the API layer.
type ContextKey string

const (
	// SubjectContextKey holds the authenticated token subject.
	SubjectContextKey ContextKey = "subject"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID adds a trace ID to the context. When the request already carries
// an OpenTelemetry span, its trace ID is reused so logs and traces correlate.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, newTraceID(ctx))
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SetSubject records the authenticated subject on the context.
func SetSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, SubjectContextKey, subject)
}

// GetSubject returns the authenticated subject, if any.
func GetSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectContextKey).(string)
	return subject, ok && subject != ""
}

// newTraceID returns 32 lowercase hex characters.
func newTraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
