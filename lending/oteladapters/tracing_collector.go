package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	attrStatus    = "status"
	attrErrorKind = "error_kind"
)

// TracingCollector implements lending.TracingCollector on the OpenTelemetry tracing API.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a tracing collector on tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts an internal span carrying attrs and returns the context holding it.
func (t *TracingCollector) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, lending.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal), trace.WithAttributes(attributes(attrs)...))

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan adds attrs, sets the status and ends the span. Spans from other collectors are ignored.
func (t *TracingCollector) FinishSpan(spanCtx lending.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpanCtx.span.SetAttributes(attributes(attrs)...)
	otelSpanCtx.setSpanStatus(status, attrs[attrErrorKind])
	otelSpanCtx.span.End()
}

var _ lending.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext implements lending.SpanContext by wrapping an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus maps status to an OpenTelemetry status code.
func (s *OTelSpanContext) SetStatus(status string) {
	s.setSpanStatus(status, "")
}

// AddAttribute adds a string attribute to the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// setSpanStatus sets codes.Ok for success and codes.Error with the error kind as description for
// errors. Any other status is recorded as an attribute only.
func (s *OTelSpanContext) setSpanStatus(status, errorKind string) {
	switch status {
	case statusSuccess:
		s.span.SetStatus(codes.Ok, "")
	case statusError:
		if errorKind == "" {
			errorKind = lending.KindUnknown.String()
		}

		s.span.SetStatus(codes.Error, errorKind)
	default:
		s.span.SetAttributes(attribute.String(attrStatus, status))
	}
}

var _ lending.SpanContext = (*OTelSpanContext)(nil)
