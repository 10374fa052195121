package session

import (
	"context"
	"time"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// logDebugContext logs at debug level to whichever loggers are configured.
func (c *Coordinator) logDebugContext(ctx context.Context, msg string, args ...any) {
	args = append([]any{logAttrSessionID, c.id}, args...)

	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}

	if c.contextualLogger != nil {
		c.contextualLogger.DebugContext(ctx, msg, args...)
	}
}

// logInfoContext logs at info level to whichever loggers are configured.
func (c *Coordinator) logInfoContext(ctx context.Context, msg string, args ...any) {
	args = append([]any{logAttrSessionID, c.id}, args...)

	if c.logger != nil {
		c.logger.Info(msg, args...)
	}

	if c.contextualLogger != nil {
		c.contextualLogger.InfoContext(ctx, msg, args...)
	}
}

// logWarnContext logs at warn level to whichever loggers are configured.
func (c *Coordinator) logWarnContext(ctx context.Context, msg string, args ...any) {
	args = append([]any{logAttrSessionID, c.id}, args...)

	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}

	if c.contextualLogger != nil {
		c.contextualLogger.WarnContext(ctx, msg, args...)
	}
}

// logErrorContext logs err at the error level to whichever loggers are configured.
func (c *Coordinator) logErrorContext(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrSessionID, c.id, logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if c.logger != nil {
		c.logger.Error(msg, allArgs...)
	}

	if c.contextualLogger != nil {
		c.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

// recordOutcome counts a transaction outcome and, when the transaction was opened, its duration.
func (c *Coordinator) recordOutcome(ctx context.Context, outcome string, openFor time.Duration) {
	if c.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOutcome: outcome}

	// Use context-aware methods if available
	if contextual, ok := c.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metricTransactions, labels)
		if openFor > 0 {
			contextual.RecordDurationContext(ctx, metricTransactionDuration, openFor, labels)
		}

		return
	}

	c.metricsCollector.IncrementCounter(metricTransactions, labels)
	if openFor > 0 {
		c.metricsCollector.RecordDuration(metricTransactionDuration, openFor, labels)
	}
}
