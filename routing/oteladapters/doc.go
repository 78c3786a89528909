// Package oteladapters provides OpenTelemetry implementations of the routing observability interfaces.
//
// The same adapters serve routing.Interceptor and routingpool.Pool:
//
//	meter := otel.Meter("routing")
//	tracer := otel.Tracer("routing")
//
//	interceptor, err := routing.NewInterceptor(
//		routing.WithMetrics(oteladapters.NewMetricsCollector(meter)),
//		routing.WithTracing(oteladapters.NewTracingCollector(tracer)),
//		routing.WithContextualLogger(oteladapters.NewSlogBridgeLogger("routing")),
//	)
package oteladapters
