// Package oteladapters provides OpenTelemetry implementations of the lending observability contracts.
//
//   - SlogBridgeLogger and OTelLogger implement lending.ContextualLogger
//   - MetricsCollector implements lending.ContextualMetricsCollector
//   - TracingCollector implements lending.TracingCollector
//
// Usage:
//
//	engine, err := circulation.NewEngine(
//		catalog,
//		circulation.WithContextualLogger(oteladapters.NewSlogBridgeLogger("lending")),
//		circulation.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter("lending"))),
//		circulation.WithTracing(oteladapters.NewTracingCollector(otel.Tracer("lending"))),
//	)
package oteladapters
