package circulation

import (
	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// Option defines a functional option for configuring an Engine.
type Option func(*Engine) error

// WithLogger sets the logger for the Engine.
//
// Info level: completed operations with outcome and duration
// Error level: failed operations with the error kind.
func WithLogger(logger lending.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Engine, for trace correlation.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine.
// If the collector also implements lending.ContextualMetricsCollector, the context-aware methods are used.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Engine. Every operation gets one span.
func WithTracing(collector lending.TracingCollector) Option {
	return func(e *Engine) error {
		e.tracingCollector = collector
		return nil
	}
}
