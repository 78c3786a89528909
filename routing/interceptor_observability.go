package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	logMsgRoutingDecision = "routing decision"
	logMsgCallFailed      = "intercepted call failed"
	logMsgCallPanicked    = "intercepted call panicked"
	logAttrOperation      = "operation"
	logAttrUnit           = "unit"
	logAttrRoute          = "route"
	logAttrSource         = "source"
	logAttrError          = "error"
	logAttrDurationMS     = "duration_ms"

	// MetricDecisions counts routing decisions, labeled by route and source.
	MetricDecisions = "routing_decisions_total"

	// MetricCallDuration records the duration of intercepted calls, labeled by route and status.
	MetricCallDuration = "routing_call_duration_seconds"

	// MetricCallErrors counts failed intercepted calls, labeled by route and error type.
	MetricCallErrors = "routing_call_errors_total"

	// SpanNameIntercept is the name of the span created for each intercepted call.
	SpanNameIntercept = "routing.intercept"

	// Span attribute and metric label names.
	AttrOperation = "operation"
	AttrUnit      = "unit"
	AttrRoute     = "route"
	AttrSource    = "source"
	AttrStatus    = "status"
	AttrErrorType = "error_type"
	AttrDuration  = "duration_ms"

	// Call status values used in spans and metric labels.
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusCanceled = "canceled"
	StatusTimeout  = "timeout"
	StatusPanic    = "panic"

	errorTypeCall     = "call_failed"
	errorTypeCanceled = "context_canceled"
	errorTypeTimeout  = "context_deadline_exceeded"
	errorTypePanic    = "panic"
)

// callObservation encapsulates logging, metrics and tracing for one intercepted call.
type callObservation struct {
	interceptor *Interceptor
	ctx         context.Context
	op          Operation
	decision    Decision
	span        SpanContext
	start       time.Time
}

// startObservation logs the decision, counts it and starts the span for one call.
// The returned context carries the span, if any, on top of the route scope.
func (i *Interceptor) startObservation(
	ctx context.Context,
	op Operation,
	decision Decision,
) (*callObservation, context.Context) {

	i.logDecision(ctx, op, decision)

	i.incrementCounter(ctx, MetricDecisions, map[string]string{
		AttrRoute:  decision.Route.String(),
		AttrSource: string(decision.Source),
	})

	spanCtx, span := i.startSpan(ctx, op, decision)

	return &callObservation{
		interceptor: i,
		ctx:         spanCtx,
		op:          op,
		decision:    decision,
		span:        span,
		start:       time.Now(),
	}, spanCtx
}

// finish records the outcome of a call that returned.
func (o *callObservation) finish(err error) {
	duration := time.Since(o.start)
	status := statusFor(err)

	o.interceptor.recordDuration(o.ctx, MetricCallDuration, duration, map[string]string{
		AttrRoute:  o.decision.Route.String(),
		AttrStatus: status,
	})

	if err != nil {
		errorType := errorTypeFor(err)

		o.interceptor.incrementCounter(o.ctx, MetricCallErrors, map[string]string{
			AttrRoute:     o.decision.Route.String(),
			AttrErrorType: errorType,
		})

		o.interceptor.logError(o.ctx, logMsgCallFailed, err,
			logAttrUnit, o.op.Unit,
			logAttrOperation, o.op.Name,
			logAttrRoute, o.decision.Route.String(),
			logAttrDurationMS, toMilliseconds(duration))

		o.interceptor.finishSpan(o.span, status, duration, map[string]string{AttrErrorType: errorType})

		return
	}

	o.interceptor.finishSpan(o.span, status, duration, nil)
}

// finishPanicked records a call that did not return normally.
func (o *callObservation) finishPanicked() {
	duration := time.Since(o.start)

	o.interceptor.recordDuration(o.ctx, MetricCallDuration, duration, map[string]string{
		AttrRoute:  o.decision.Route.String(),
		AttrStatus: StatusPanic,
	})

	o.interceptor.incrementCounter(o.ctx, MetricCallErrors, map[string]string{
		AttrRoute:     o.decision.Route.String(),
		AttrErrorType: errorTypePanic,
	})

	o.interceptor.logError(o.ctx, logMsgCallPanicked, errors.New(errorTypePanic),
		logAttrUnit, o.op.Unit,
		logAttrOperation, o.op.Name,
		logAttrRoute, o.decision.Route.String())

	o.interceptor.finishSpan(o.span, StatusPanic, duration, map[string]string{AttrErrorType: errorTypePanic})
}

func statusFor(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	default:
		return StatusError
	}
}

func errorTypeFor(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return errorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return errorTypeTimeout
	default:
		return errorTypeCall
	}
}

// logDecision logs the routing decision at debug level with whichever loggers are configured.
func (i *Interceptor) logDecision(ctx context.Context, op Operation, decision Decision) {
	args := []any{
		logAttrUnit, op.Unit,
		logAttrOperation, op.Name,
		logAttrRoute, decision.Route.String(),
		logAttrSource, string(decision.Source),
	}

	if i.logger != nil {
		i.logger.Debug(logMsgRoutingDecision, args...)
	}

	if i.contextualLogger != nil {
		i.contextualLogger.DebugContext(ctx, logMsgRoutingDecision, args...)
	}
}

// logError logs error information at the error level with whichever loggers are configured.
func (i *Interceptor) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if i.logger != nil {
		i.logger.Error(message, allArgs...)
	}

	if i.contextualLogger != nil {
		i.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// incrementCounter increments a counter, using the context-aware method if the collector supports it.
func (i *Interceptor) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if i.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := i.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	i.metricsCollector.IncrementCounter(metric, labels)
}

// recordDuration records a duration, using the context-aware method if the collector supports it.
func (i *Interceptor) recordDuration(
	ctx context.Context,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {

	if i.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := i.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	i.metricsCollector.RecordDuration(metric, duration, labels)
}

// startSpan starts a tracing span if the tracing collector is configured.
func (i *Interceptor) startSpan(ctx context.Context, op Operation, decision Decision) (context.Context, SpanContext) {
	if i.tracingCollector == nil {
		return ctx, nil
	}

	return i.tracingCollector.StartSpan(ctx, SpanNameIntercept, map[string]string{
		AttrUnit:      op.Unit,
		AttrOperation: op.Name,
		AttrRoute:     decision.Route.String(),
		AttrSource:    string(decision.Source),
	})
}

// finishSpan finishes a tracing span if the tracing collector is configured.
func (i *Interceptor) finishSpan(span SpanContext, status string, duration time.Duration, attrs map[string]string) {
	if i.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(status)
	span.AddAttribute(AttrDuration, fmt.Sprintf("%.2f", toMilliseconds(duration)))

	for key, value := range attrs {
		span.AddAttribute(key, value)
	}

	i.tracingCollector.FinishSpan(span, status, attrs)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
