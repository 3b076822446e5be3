// Package opentelemetry provides OpenTelemetry instrumentation, in the form
// of metrics and traces, for the event.Store and aggregate.Repository interfaces.
package opentelemetry

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/get-eventually/eventcore/opentelemetry"

// Option configures the instrumented wrappers.
type Option func(*instrumentation)

// WithMeterProvider sets the metric.MeterProvider used to register metrics.
// The global one is used when not specified, or when provider is nil.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(i *instrumentation) {
		if provider != nil {
			i.meterProvider = provider
		}
	}
}

// WithTracerProvider sets the trace.TracerProvider used to start spans.
// The global one is used when not specified, or when provider is nil.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(i *instrumentation) {
		if provider != nil {
			i.tracerProvider = provider
		}
	}
}

// WithAttributes adds attributes to every span and measurement recorded,
// e.g. to tell apart multiple instrumented stores in the same process.
func WithAttributes(attributes ...attribute.KeyValue) Option {
	return func(i *instrumentation) {
		i.attributes = append(i.attributes, attributes...)
	}
}

type instrumentation struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	attributes     []attribute.KeyValue

	tracer trace.Tracer
}

func newInstrumentation(options ...Option) *instrumentation {
	i := &instrumentation{
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}

	for _, apply := range options {
		apply(i)
	}

	i.tracer = i.tracerProvider.Tracer(instrumentationName)

	return i
}

func (i *instrumentation) meter() metric.Meter {
	return i.meterProvider.Meter(instrumentationName)
}

func (i *instrumentation) startSpan(
	ctx context.Context,
	name string,
	attributes ...attribute.KeyValue,
) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, name, trace.WithAttributes(slices.Concat(i.attributes, attributes)...))
}

// measurement returns the attributes of a metric recorded at the end of an
// operation, including its outcome.
func (i *instrumentation) measurement(err error, attributes ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(slices.Concat(i.attributes, attributes, outcomeAttributes(err))...)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}
