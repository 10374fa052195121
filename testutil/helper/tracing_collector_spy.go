package helper

import (
	"context"
	"maps"
	"sync"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

// SpySpanContext is a lending.SpanContext that records its status and attributes.
type SpySpanContext struct {
	mu         sync.Mutex
	name       string
	status     string
	attributes map[string]string
	finished   bool
}

// SetStatus implements lending.SpanContext.
func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
}

// AddAttribute implements lending.SpanContext.
func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attributes[key] = value
}

// Name returns the span name.
func (c *SpySpanContext) Name() string {
	return c.name
}

// Status returns the status the span was finished with.
func (c *SpySpanContext) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// Attributes returns a copy of the start and finish attributes.
func (c *SpySpanContext) Attributes() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return maps.Clone(c.attributes)
}

// Finished reports whether FinishSpan was called for the span.
func (c *SpySpanContext) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.finished
}

// TracingCollectorSpy is a lending.TracingCollector that records all spans for testing.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []*SpySpanContext
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

// StartSpan implements lending.TracingCollector.
func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, lending.SpanContext) {
	span := &SpySpanContext{name: name, attributes: maps.Clone(attrs)}
	if span.attributes == nil {
		span.attributes = make(map[string]string)
	}

	s.mu.Lock()
	s.spans = append(s.spans, span)
	s.mu.Unlock()

	return ctx, span
}

// FinishSpan implements lending.TracingCollector.
func (s *TracingCollectorSpy) FinishSpan(spanCtx lending.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpySpanContext)
	if !ok {
		return
	}

	span.mu.Lock()
	defer span.mu.Unlock()

	span.status = status
	span.finished = true
	maps.Copy(span.attributes, attrs)
}

// Spans returns all started spans named name.
func (s *TracingCollectorSpy) Spans(name string) []*SpySpanContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	spans := make([]*SpySpanContext, 0)
	for _, span := range s.spans {
		if span.name == name {
			spans = append(spans, span)
		}
	}

	return spans
}

var _ lending.TracingCollector = (*TracingCollectorSpy)(nil)
