package routing

import "errors"

var (
	// ErrNilCall is returned when Intercept is called without a function to wrap.
	ErrNilCall = errors.New("intercepted call must not be nil")

	// ErrNilInterceptor is returned when a component that routes its calls is built without an Interceptor.
	ErrNilInterceptor = errors.New("interceptor must not be nil")

	// ErrNilHintRegistry is returned when WithHints receives a nil registry.
	ErrNilHintRegistry = errors.New("hint registry must not be nil")

	// ErrUnknownHint is returned when ParseHint cannot recognize its input.
	ErrUnknownHint = errors.New("unknown routing hint")

	// ErrRouteLeaked is the panic value raised when a route scope is still set after the
	// interceptor cleared it. It indicates a defect in the cleanup discipline and is never returned.
	ErrRouteLeaked = errors.New("route still set after intercepted call completed")

	// ErrNilLogger is returned when a nil logger is provided to WithLogger or WithContextualLogger.
	ErrNilLogger = errors.New("logger must not be nil")

	// ErrNilMetricsCollector is returned when a nil collector is provided to WithMetrics.
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")

	// ErrNilTracingCollector is returned when a nil collector is provided to WithTracing.
	ErrNilTracingCollector = errors.New("tracing collector must not be nil")
)
