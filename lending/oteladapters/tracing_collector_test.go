package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending/oteladapters"
)

func givenTracingCollector() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func Test_TracingCollector_SuccessfulSpan(t *testing.T) {
	// setup
	collector, exporter := givenTracingCollector()

	// act
	ctx, spanCtx := collector.StartSpan(context.Background(), "lending.borrow",
		map[string]string{"operation": "borrow", "book_id": "1"})
	spanCtx.AddAttribute("session_id", "s-1")
	collector.FinishSpan(spanCtx, "success", map[string]string{"outcome": "borrowed"})

	// assert
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "lending.borrow", span.Name)
	assert.Equal(t, trace.SpanKindInternal, span.SpanKind)
	assert.Equal(t, codes.Ok, span.Status.Code)
	assert.Contains(t, span.Attributes, attribute.String("book_id", "1"))
	assert.Contains(t, span.Attributes, attribute.String("session_id", "s-1"))
	assert.Contains(t, span.Attributes, attribute.String("outcome", "borrowed"))
}

func Test_TracingCollector_ErrorSpan_CarriesErrorKind(t *testing.T) {
	// setup
	collector, exporter := givenTracingCollector()

	// act
	_, spanCtx := collector.StartSpan(context.Background(), "lending.copies", nil)
	collector.FinishSpan(spanCtx, "error", map[string]string{"error_kind": "not_found"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "not_found", spans[0].Status.Description)
}

func Test_TracingCollector_UnknownStatus_IsRecordedAsAttribute(t *testing.T) {
	// setup
	collector, exporter := givenTracingCollector()

	// act
	_, spanCtx := collector.StartSpan(context.Background(), "lending.borrow", nil)
	collector.FinishSpan(spanCtx, "partial", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("status", "partial"))
}

func Test_TracingCollector_NestedSpans_ShareTrace(t *testing.T) {
	// setup
	collector, exporter := givenTracingCollector()

	// act
	ctx, outer := collector.StartSpan(context.Background(), "lending.borrow", nil)
	_, inner := collector.StartSpan(ctx, "lending.copies", nil)
	collector.FinishSpan(inner, "success", nil)
	collector.FinishSpan(outer, "success", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[0].SpanContext.TraceID(), spans[1].SpanContext.TraceID())
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}
