package routing_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
	. "github.com/AntonStoeckl/dynamic-datasource-routing-go/testutil/routingtest" //nolint:revive
)

func Test_Observability_Intercept_WithLogger_LogsDecision(t *testing.T) {
	// setup
	logSpy := NewLogHandlerSpy(false)
	interceptor := newInterceptor(t, routing.WithLogger(logSpy.Logger()))

	// act
	err := interceptor.Intercept(context.Background(), routing.Op("CustomerMapper", "selectById"), func(context.Context) error {
		return nil
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, logSpy.GetRecordCount())
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelDebug, "routing decision", "route", "read"))
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelDebug, "routing decision", "source", "classifier"))
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelDebug, "routing decision", "unit", "CustomerMapper"))
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelDebug, "routing decision", "operation", "selectById"))
}

func Test_Observability_Intercept_WithContextualLogger_LogsFailure(t *testing.T) {
	// setup
	logSpy := NewLogHandlerSpy(false)
	interceptor := newInterceptor(t, routing.WithContextualLogger(logSpy.Logger()))

	// act
	err := interceptor.Intercept(context.Background(), routing.Op("OrderMapper", "insert"), func(context.Context) error {
		return errors.New("duplicate order number")
	})

	// assert
	assert.Error(t, err)
	assert.True(t, logSpy.HasLog(slog.LevelDebug, "routing decision"))
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelError, "intercepted call failed", "error", "duplicate order number"))
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelError, "intercepted call failed", "route", "write"))
}

func Test_Observability_Intercept_WithLogger_LogsPanic(t *testing.T) {
	// setup
	logSpy := NewLogHandlerSpy(false)
	interceptor := newInterceptor(t, routing.WithLogger(logSpy.Logger()))

	// act
	assert.Panics(t, func() {
		_ = interceptor.Intercept(context.Background(), routing.Op("OrderMapper", "insert"), func(context.Context) error {
			panic("boom")
		})
	})

	// assert
	assert.Equal(t, 1, logSpy.CountLogs(slog.LevelError, "intercepted call panicked"))
}

func Test_Observability_Intercept_WithMetrics_RecordsDecisionAndDuration(t *testing.T) {
	// setup
	metricsSpy := NewMetricsCollectorSpy()
	interceptor := newInterceptor(t, routing.WithMetrics(metricsSpy))

	// act
	_ = interceptor.Intercept(context.Background(), routing.Op("CustomerMapper", "selectById"), func(context.Context) error {
		return nil
	})
	_ = interceptor.Intercept(context.Background(), routing.Op("CustomerMapper", "insert"), func(context.Context) error {
		return nil
	})

	// assert
	assert.Equal(t, 1, metricsSpy.CountCounter(routing.MetricDecisions, map[string]string{
		routing.AttrRoute:  "read",
		routing.AttrSource: "classifier",
	}))
	assert.Equal(t, 1, metricsSpy.CountCounter(routing.MetricDecisions, map[string]string{routing.AttrRoute: "write"}))
	assert.True(t, metricsSpy.HasDurationRecord(routing.MetricCallDuration, map[string]string{
		routing.AttrRoute:  "read",
		routing.AttrStatus: routing.StatusSuccess,
	}))
	assert.Equal(t, 0, metricsSpy.CountCounter(routing.MetricCallErrors, nil))
}

func Test_Observability_Intercept_WithMetrics_CountsErrorsByType(t *testing.T) {
	testCases := []struct {
		name              string
		callErr           error
		expectedStatus    string
		expectedErrorType string
	}{
		{name: "plain error", callErr: errors.New("failed"), expectedStatus: routing.StatusError, expectedErrorType: "call_failed"},
		{name: "canceled", callErr: context.Canceled, expectedStatus: routing.StatusCanceled, expectedErrorType: "context_canceled"},
		{name: "timeout", callErr: context.DeadlineExceeded, expectedStatus: routing.StatusTimeout, expectedErrorType: "context_deadline_exceeded"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			metricsSpy := NewMetricsCollectorSpy()
			interceptor := newInterceptor(t, routing.WithMetrics(metricsSpy))

			// act
			_ = interceptor.Intercept(context.Background(), routing.Op("CustomerMapper", "updateStatus"), func(context.Context) error {
				return tc.callErr
			})

			// assert
			assert.Equal(t, 1, metricsSpy.CountCounter(routing.MetricCallErrors, map[string]string{
				routing.AttrRoute:     "write",
				routing.AttrErrorType: tc.expectedErrorType,
			}))
			assert.True(t, metricsSpy.HasDurationRecord(routing.MetricCallDuration, map[string]string{
				routing.AttrStatus: tc.expectedStatus,
			}))
		})
	}
}

func Test_Observability_Intercept_WithTracing_CreatesOneSpanPerCall(t *testing.T) {
	// setup
	tracingSpy := NewTracingCollectorSpy()
	hints := routing.NewHintRegistry().ForUnit("CustomerService", routing.HintForceWrite)
	interceptor := newInterceptor(t, routing.WithTracing(tracingSpy), routing.WithHints(hints))

	// act
	_ = interceptor.Intercept(context.Background(), routing.Op("CustomerService", "listAll"), func(context.Context) error {
		return nil
	})

	// assert
	spans := tracingSpy.GetSpanRecords()
	require.Len(t, spans, 1)
	assert.Equal(t, routing.SpanNameIntercept, spans[0].Name)
	assert.Equal(t, "write", spans[0].StartAttributes[routing.AttrRoute])
	assert.Equal(t, "unit_hint", spans[0].StartAttributes[routing.AttrSource])
	assert.Equal(t, "listAll", spans[0].StartAttributes[routing.AttrOperation])
	assert.True(t, spans[0].Finished)
	assert.Equal(t, routing.StatusSuccess, spans[0].Status)
	assert.Contains(t, spans[0].SpanContext.GetAttributes(), routing.AttrDuration)
}

func Test_Observability_Intercept_WithTracing_FinishesSpanOnPanic(t *testing.T) {
	// setup
	tracingSpy := NewTracingCollectorSpy()
	interceptor := newInterceptor(t, routing.WithTracing(tracingSpy))

	// act
	assert.Panics(t, func() {
		_ = interceptor.Intercept(context.Background(), routing.Op("OrderMapper", "deleteById"), func(context.Context) error {
			panic("boom")
		})
	})

	// assert
	spans := tracingSpy.GetSpanRecords()
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Finished)
	assert.Equal(t, routing.StatusPanic, spans[0].Status)
	assert.Equal(t, "panic", spans[0].EndAttributes[routing.AttrErrorType])
}
