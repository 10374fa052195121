package oteladapters

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// SlogBridgeLogger implements lending.ContextualLogger with the OpenTelemetry slog bridge,
// which adds trace and span IDs from ctx to every record.
type SlogBridgeLogger struct {
	logger *slog.Logger
}

// NewSlogBridgeLogger creates a contextual logger on the global OpenTelemetry LoggerProvider.
func NewSlogBridgeLogger(name string, options ...otelslog.Option) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name, options...)}
}

// NewSlogBridgeLoggerWithHandler creates a contextual logger on handler, without trace correlation.
// The lendingctl CLI uses it for plain console output.
func NewSlogBridgeLoggerWithHandler(handler slog.Handler) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: slog.New(handler)}
}

// DebugContext logs a debug message with context.
func (l *SlogBridgeLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

// InfoContext logs an info message with context.
func (l *SlogBridgeLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

// WarnContext logs a warning message with context.
func (l *SlogBridgeLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

// ErrorContext logs an error message with context.
func (l *SlogBridgeLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

var _ lending.ContextualLogger = (*SlogBridgeLogger)(nil)

// OTelLogger implements lending.ContextualLogger on the OpenTelemetry log API directly.
// Attribute values keep their type where the log API has one (string, bool, integers, floats, durations).
type OTelLogger struct {
	logger log.Logger
}

// NewOTelLogger creates a contextual logger emitting to logger.
func NewOTelLogger(logger log.Logger) *OTelLogger {
	return &OTelLogger{logger: logger}
}

// DebugContext emits a debug record.
func (l *OTelLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityDebug, msg, args)
}

// InfoContext emits an info record.
func (l *OTelLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityInfo, msg, args)
}

// WarnContext emits a warning record.
func (l *OTelLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityWarn, msg, args)
}

// ErrorContext emits an error record.
func (l *OTelLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityError, msg, args)
}

// emit builds a record from slog-style key-value args. A trailing key without value and
// non-string keys are dropped.
func (l *OTelLogger) emit(ctx context.Context, severity log.Severity, msg string, args []any) {
	record := log.Record{}
	record.SetTimestamp(time.Now())
	record.SetSeverity(severity)
	record.SetSeverityText(severity.String())
	record.SetBody(log.StringValue(msg))

	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}

		record.AddAttributes(log.KeyValue{Key: key, Value: logValue(args[i+1])})
	}

	l.logger.Emit(ctx, record)
}

func logValue(v any) log.Value {
	switch value := v.(type) {
	case string:
		return log.StringValue(value)
	case bool:
		return log.BoolValue(value)
	case int:
		return log.IntValue(value)
	case int64:
		return log.Int64Value(value)
	case float64:
		return log.Float64Value(value)
	case time.Duration:
		return log.StringValue(value.String())
	case error:
		return log.StringValue(value.Error())
	case fmt.Stringer:
		return log.StringValue(value.String())
	default:
		return log.StringValue(slog.AnyValue(v).String())
	}
}

var _ lending.ContextualLogger = (*OTelLogger)(nil)
