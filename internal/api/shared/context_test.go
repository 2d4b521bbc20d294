package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID in original context")

	ctxWithTrace := SetTraceID(ctx)

	traceID := GetTraceID(ctxWithTrace)
	assert.Len(t, traceID, 32, "Expected trace ID length to be 32 hex characters (16 bytes)")
	assert.Empty(t, GetTraceID(ctx), "Expected original context to remain unchanged")
	assert.NotEqual(t, traceID, GetTraceID(SetTraceID(ctx)), "trace IDs are unique")
}

func TestSetTraceID_ReusesSpanTraceID(t *testing.T) {
	traceID := trace.TraceID{0x0a, 0x0b, 0x0c, 0x0d, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x10, 0x11, 0x12}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	assert.Equal(t, traceID.String(), GetTraceID(SetTraceID(ctx)))
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123) // Not a string
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID when context has invalid type")
}

func TestSubject(t *testing.T) {
	_, ok := GetSubject(context.Background())
	assert.False(t, ok)

	_, ok = GetSubject(SetSubject(context.Background(), ""))
	assert.False(t, ok)

	subject, ok := GetSubject(SetSubject(context.Background(), "ops"))
	assert.True(t, ok)
	assert.Equal(t, "ops", subject)
}
