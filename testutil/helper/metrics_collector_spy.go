package helper

import (
	"maps"
	"sync"
	"time"
)

// MetricsCollectorSpy is a lending.MetricsCollector that captures metrics calls for testing.
// It deliberately does not implement the contextual variant, so components fall back to the plain methods.
type MetricsCollectorSpy struct {
	mu        sync.Mutex
	durations []SpyDurationRecord
	counters  []SpyCounterRecord
	values    []SpyValueRecord
}

// SpyDurationRecord represents a recorded duration metric call.
type SpyDurationRecord struct {
	Metric   string
	Duration time.Duration
	Labels   map[string]string
}

// SpyCounterRecord represents a recorded counter increment call.
type SpyCounterRecord struct {
	Metric string
	Labels map[string]string
}

// SpyValueRecord represents a recorded value metric call.
type SpyValueRecord struct {
	Metric string
	Value  float64
	Labels map[string]string
}

// NewMetricsCollectorSpy creates a new MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

// RecordDuration implements lending.MetricsCollector.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations = append(s.durations, SpyDurationRecord{Metric: metric, Duration: duration, Labels: maps.Clone(labels)})
}

// IncrementCounter implements lending.MetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters = append(s.counters, SpyCounterRecord{Metric: metric, Labels: maps.Clone(labels)})
}

// RecordValue implements lending.MetricsCollector.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = append(s.values, SpyValueRecord{Metric: metric, Value: value, Labels: maps.Clone(labels)})
}

// DurationRecords returns the captured duration records of metric.
func (s *MetricsCollectorSpy) DurationRecords(metric string) []SpyDurationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpyDurationRecord, 0)
	for _, record := range s.durations {
		if record.Metric == metric {
			records = append(records, record)
		}
	}

	return records
}

// CounterRecords returns the captured counter records of metric.
func (s *MetricsCollectorSpy) CounterRecords(metric string) []SpyCounterRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpyCounterRecord, 0)
	for _, record := range s.counters {
		if record.Metric == metric {
			records = append(records, record)
		}
	}

	return records
}

// HasCounter reports whether metric was incremented with labels including all of want.
func (s *MetricsCollectorSpy) HasCounter(metric string, want map[string]string) bool {
	for _, record := range s.CounterRecords(metric) {
		if containsLabels(record.Labels, want) {
			return true
		}
	}

	return false
}

// HasDuration reports whether a duration of metric was recorded with labels including all of want.
func (s *MetricsCollectorSpy) HasDuration(metric string, want map[string]string) bool {
	for _, record := range s.DurationRecords(metric) {
		if containsLabels(record.Labels, want) && record.Duration >= 0 {
			return true
		}
	}

	return false
}

// Reset clears all captured records.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations, s.counters, s.values = nil, nil, nil
}

func containsLabels(labels, want map[string]string) bool {
	for key, value := range want {
		if labels[key] != value {
			return false
		}
	}

	return true
}
