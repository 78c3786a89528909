package oteladapters_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing/oteladapters"
)

func newInMemoryTracer() (*tracetest.InMemoryExporter, *oteladapters.TracingCollector) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return exporter, oteladapters.NewTracingCollector(provider.Tracer("test"))
}

func spanAttribute(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// setup
	exporter, collector := newInMemoryTracer()

	// act
	ctx, spanCtx := collector.StartSpan(context.Background(), routing.SpanNameIntercept, map[string]string{
		routing.AttrOperation: "selectById",
		routing.AttrRoute:     "read",
	})
	spanCtx.AddAttribute(routing.AttrDuration, "1.50")
	collector.FinishSpan(spanCtx, routing.StatusSuccess, map[string]string{"rows": "1"})

	// assert
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, routing.SpanNameIntercept, span.Name)
	assert.Equal(t, trace.SpanKindClient, span.SpanKind)
	assert.Equal(t, codes.Ok, span.Status.Code)

	for key, expected := range map[string]string{
		routing.AttrOperation: "selectById",
		routing.AttrRoute:     "read",
		routing.AttrDuration:  "1.50",
		"rows":                "1",
	} {
		value, found := spanAttribute(span, key)
		assert.True(t, found, "attribute %s should be present", key)
		assert.Equal(t, expected, value)
	}
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	testCases := []struct {
		status       string
		expectedCode codes.Code
	}{
		{status: routing.StatusSuccess, expectedCode: codes.Ok},
		{status: routing.StatusError, expectedCode: codes.Error},
		{status: routing.StatusCanceled, expectedCode: codes.Error},
		{status: routing.StatusTimeout, expectedCode: codes.Error},
		{status: routing.StatusPanic, expectedCode: codes.Error},
		{status: "something_else", expectedCode: codes.Unset},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			// setup
			exporter, collector := newInMemoryTracer()

			// act
			_, spanCtx := collector.StartSpan(context.Background(), "test", nil)
			collector.FinishSpan(spanCtx, tc.status, nil)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
		})
	}
}

type foreignSpanContext struct{}

func (foreignSpanContext) SetStatus(string)            {}
func (foreignSpanContext) AddAttribute(string, string) {}

func Test_TracingCollector_FinishSpan_IgnoresForeignSpanContext(t *testing.T) {
	exporter, collector := newInMemoryTracer()

	assert.NotPanics(t, func() {
		collector.FinishSpan(foreignSpanContext{}, routing.StatusSuccess, nil)
	})
	assert.Empty(t, exporter.GetSpans())
}

func Test_TracingCollector_WithInterceptor_RecordsFailedCall(t *testing.T) {
	// setup
	exporter, collector := newInMemoryTracer()
	interceptor, err := routing.NewInterceptor(routing.WithTracing(collector))
	require.NoError(t, err)

	// act
	callErr := interceptor.Intercept(context.Background(), routing.Op("OrderMapper", "updateStatus"), func(ctx context.Context) error {
		assert.True(t, trace.SpanContextFromContext(ctx).IsValid(), "call should run inside the span")
		assert.Equal(t, routing.RouteWrite, routing.CurrentRoute(ctx))

		return errors.New("lock timeout")
	})

	// assert
	assert.Error(t, callErr)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	errorType, found := spanAttribute(spans[0], routing.AttrErrorType)
	assert.True(t, found)
	assert.Equal(t, "call_failed", errorType)
}
