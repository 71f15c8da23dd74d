package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return sr
}

func TestSpans(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
		wantEvents int
	}{
		{"success", nil, codes.Unset, 0},
		{"failure", errors.New("did not converge"), codes.Error, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := withRecorder(t)

			_, span := StartSpan(context.Background(), "forecast.ARIMA", attribute.String("model", "ARIMA"))
			EndSpan(span, tt.err)

			ended := sr.Ended()
			require.Len(t, ended, 1)
			got := ended[0]
			assert.Equal(t, "forecast.ARIMA", got.Name())
			assert.Equal(t, TracerName, got.InstrumentationScope().Name)
			assert.Contains(t, got.Attributes(), attribute.String("model", "ARIMA"))
			assert.Equal(t, tt.wantStatus, got.Status().Code)
			assert.Len(t, got.Events(), tt.wantEvents)
		})
	}
}

func TestStartSpan_NestsUnderParent(t *testing.T) {
	sr := withRecorder(t)

	ctx, parent := StartSpan(context.Background(), "pipeline.run")
	_, child := StartSpan(ctx, "forecast.Additive")
	EndSpan(child, nil)
	EndSpan(parent, nil)

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
	assert.Equal(t, ended[1].SpanContext().TraceID(), ended[0].SpanContext().TraceID())
}
