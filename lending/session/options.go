package session

import (
	"errors"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// ErrEmptySessionID is returned when an empty session ID is supplied.
var ErrEmptySessionID = errors.New("session id must not be empty")

// Option defines a functional option for configuring a Coordinator.
type Option func(*Coordinator) error

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) Option {
	return func(c *Coordinator) error {
		if id == "" {
			return ErrEmptySessionID
		}

		c.id = id

		return nil
	}
}

// WithLogger sets the logger for the Coordinator.
//
// Debug level: transaction begin and state transitions
// Info level: commits and rollbacks with transaction duration
// Warn level: failed rollbacks (the failure is attached to the pending error)
// Error level: failed begins and commits.
func WithLogger(logger lending.Logger) Option {
	return func(c *Coordinator) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Coordinator.
// It receives the same messages as the Logger, with the context for trace correlation.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(c *Coordinator) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Coordinator.
// It receives transaction outcome counters and transaction durations.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(c *Coordinator) error {
		c.metricsCollector = collector
		return nil
	}
}

// WithStateObserver registers a callback for state transitions.
func WithStateObserver(observer StateObserver) Option {
	return func(c *Coordinator) error {
		c.stateObserver = observer
		return nil
	}
}
