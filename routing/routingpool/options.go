package routingpool

import "github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"

// Option defines a functional option for configuring a Pool.
type Option func(*Pool) error

// WithLogger sets the logger for the Pool.
//
// Debug level: every connection acquisition with route, served target and action
// Error level: failed queries, statements and transaction steps.
func WithLogger(logger routing.Logger) Option {
	return func(p *Pool) error {
		if logger == nil {
			return ErrNilLogger
		}

		p.logger = logger

		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Pool.
func WithContextualLogger(logger routing.ContextualLogger) Option {
	return func(p *Pool) error {
		if logger == nil {
			return ErrNilLogger
		}

		p.contextualLogger = logger

		return nil
	}
}

// WithMetrics sets the metrics collector for the Pool.
// It receives one MetricAcquisitions increment per connection acquisition.
func WithMetrics(collector routing.MetricsCollector) Option {
	return func(p *Pool) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		p.metricsCollector = collector

		return nil
	}
}
