// Package routingtest provides test doubles for the routing packages:
// a recording pool Target, a slog.Handler spy, and spies for the metrics and tracing collectors.
package routingtest
