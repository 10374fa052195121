package helper

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// LogHandlerSpy is a slog.Handler that captures log records for testing.
type LogHandlerSpy struct {
	records     []slog.Record
	mu          sync.Mutex
	logToStdout bool
}

// NewLogHandlerSpy creates a new LogHandlerSpy.
// Switchable to log to stdout, which helps when debugging a test.
func NewLogHandlerSpy(logToStdout bool) *LogHandlerSpy {
	return &LogHandlerSpy{
		records:     make([]slog.Record, 0),
		logToStdout: logToStdout,
	}
}

// Handle implements slog.Handler.
func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record.Clone())

	if s.logToStdout {
		_ = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}).Handle(ctx, record)
	}

	return nil
}

// Enabled implements slog.Handler.
func (s *LogHandlerSpy) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler. Attributes bound with With are not captured.
func (s *LogHandlerSpy) WithAttrs(_ []slog.Attr) slog.Handler {
	return s
}

// WithGroup implements slog.Handler. Groups are not captured.
func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	return s
}

// RecordCount returns the number of captured log records.
func (s *LogHandlerSpy) RecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Records returns a copy of all captured log records.
func (s *LogHandlerSpy) Records() []slog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]slog.Record, len(s.records))
	copy(records, s.records)

	return records
}

// Reset clears all captured log records.
func (s *LogHandlerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = s.records[:0]
}

// HasLog starts a fluent chain to check for a record with level and message.
func (s *LogHandlerSpy) HasLog(level slog.Level, message string) *SpyLogRecordMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := make([]slog.Record, 0)
	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			candidates = append(candidates, record)
		}
	}

	return &SpyLogRecordMatcher{candidates: candidates}
}

// SpyLogRecordMatcher narrows the matching records down with every condition.
type SpyLogRecordMatcher struct {
	candidates []slog.Record
}

// WithDurationMS keeps records with a non-negative duration_ms attribute.
func (m *SpyLogRecordMatcher) WithDurationMS() *SpyLogRecordMatcher {
	return m.filter(func(attr slog.Attr) bool {
		if attr.Key != "duration_ms" {
			return false
		}

		switch attr.Value.Kind() {
		case slog.KindFloat64:
			return attr.Value.Float64() >= 0
		case slog.KindInt64:
			return attr.Value.Int64() >= 0
		default:
			return false
		}
	})
}

// WithAttr keeps records that have an attribute key, whatever its value.
func (m *SpyLogRecordMatcher) WithAttr(key string) *SpyLogRecordMatcher {
	return m.filter(func(attr slog.Attr) bool {
		return attr.Key == key
	})
}

// WithStringAttr keeps records whose attribute key renders as value.
func (m *SpyLogRecordMatcher) WithStringAttr(key, value string) *SpyLogRecordMatcher {
	return m.filter(func(attr slog.Attr) bool {
		return attr.Key == key && attr.Value.String() == value
	})
}

// Assert returns true if at least one record met all conditions of the chain.
func (m *SpyLogRecordMatcher) Assert() bool {
	return len(m.candidates) > 0
}

func (m *SpyLogRecordMatcher) filter(match func(attr slog.Attr) bool) *SpyLogRecordMatcher {
	kept := make([]slog.Record, 0, len(m.candidates))

	for _, record := range m.candidates {
		found := false
		record.Attrs(func(attr slog.Attr) bool {
			found = match(attr)
			return !found
		})

		if found {
			kept = append(kept, record)
		}
	}

	m.candidates = kept

	return m
}
