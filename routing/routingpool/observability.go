package routingpool

import (
	"context"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
)

const (
	logMsgConnectionAcquired = "connection acquired"
	logMsgQueryFailed        = "routed query failed"
	logMsgExecFailed         = "routed exec failed"
	logMsgBeginFailed        = "beginning routed transaction failed"
	logMsgCommitFailed       = "committing routed transaction failed"
	logMsgRollbackFailed     = "rolling back routed transaction failed"
	logAttrRoute             = "route"
	logAttrTarget            = "target"
	logAttrAction            = "action"
	logAttrQuery             = "query"
	logAttrError             = "error"
)

// observeAcquisition logs and counts one connection acquisition.
func (p *Pool) observeAcquisition(ctx context.Context, route routing.Route, target, action string) {
	if p.logger != nil {
		p.logger.Debug(logMsgConnectionAcquired, logAttrRoute, route.String(), logAttrTarget, target, logAttrAction, action)
	}

	if p.contextualLogger != nil {
		p.contextualLogger.DebugContext(ctx, logMsgConnectionAcquired, logAttrRoute, route.String(), logAttrTarget, target, logAttrAction, action)
	}

	if p.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		routing.AttrRoute: route.String(),
		logAttrTarget:     target,
		logAttrAction:     action,
	}

	if contextualCollector, ok := p.metricsCollector.(routing.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, MetricAcquisitions, labels)
		return
	}

	p.metricsCollector.IncrementCounter(MetricAcquisitions, labels)
}

// logError logs error information at the error level if a logger is configured.
func (p *Pool) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if p.logger != nil {
		p.logger.Error(message, allArgs...)
	}

	if p.contextualLogger != nil {
		p.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}
