package jwtmanager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNoopTracer(t *testing.T) {
	tracer := &NoopTracer{}
	ctx := context.Background()
	gotCtx, span := tracer.StartSpan(ctx, "test_span")

	_, ok := span.(*NoopSpan)
	assert.True(t, ok, "Should return a NoopSpan")
	assert.Equal(t, ctx, gotCtx)

	span.SetTag("tag", "value")
	span.RecordError(errors.New("boom"))
	span.Finish()
}

func TestOpenTelemetryTracer(t *testing.T) {
	tracer := NewOpenTelemetryTracer(noop.NewTracerProvider().Tracer("test"))

	_, span := tracer.StartSpan(context.Background(), "test_span")

	_, ok := span.(*OpenTelemetrySpan)
	assert.True(t, ok, "Should return an OpenTelemetrySpan")

	span.SetTag("bool", true)
	span.SetTag("int", 3)
	span.SetTag("string", "value")
	span.SetTag("other", 1.5)
	span.RecordError(errors.New("boom"))
	span.Finish()
}
