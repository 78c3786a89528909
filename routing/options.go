package routing

// Option defines a functional option for configuring an Interceptor.
type Option func(*Interceptor) error

// WithHints sets the registry of unit and operation hints.
// The interceptor keeps a snapshot; later changes to the registry are not observed.
func WithHints(registry *HintRegistry) Option {
	return func(i *Interceptor) error {
		if registry == nil {
			return ErrNilHintRegistry
		}

		i.hints = registry.snapshot()

		return nil
	}
}

// WithLogger sets the logger for the Interceptor.
//
// Debug level: every routing decision with operation, unit, route and decision source
// Error level: failures of intercepted calls (the failure itself is still returned unchanged).
func WithLogger(logger Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return ErrNilLogger
		}

		i.logger = logger

		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Interceptor.
// Messages are the same as for WithLogger, emitted with the call's context for trace correlation.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return ErrNilLogger
		}

		i.contextualLogger = logger

		return nil
	}
}

// WithMetrics sets the metrics collector for the Interceptor.
// It receives decision counters per route and source, call durations and call error counters.
func WithMetrics(collector MetricsCollector) Option {
	return func(i *Interceptor) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		i.metricsCollector = collector

		return nil
	}
}

// WithTracing sets the tracing collector for the Interceptor.
// One span is created per intercepted call.
func WithTracing(collector TracingCollector) Option {
	return func(i *Interceptor) error {
		if collector == nil {
			return ErrNilTracingCollector
		}

		i.tracingCollector = collector

		return nil
	}
}
