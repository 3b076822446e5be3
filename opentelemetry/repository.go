package opentelemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/partition"
)

var _ aggregate.Repository = new(InstrumentedRepository)

// InstrumentedRepository is a wrapper type over an aggregate.Repository
// instance to provide instrumentation, in the form of metrics and traces
// using OpenTelemetry.
//
// Use NewInstrumentedRepository for constructing a new instance of this type.
type InstrumentedRepository struct {
	repository aggregate.Repository

	*instrumentation
	loadDuration metric.Int64Histogram
	saveDuration metric.Int64Histogram
}

func (ir *InstrumentedRepository) registerMetrics(meter metric.Meter) error {
	var err error

	if ir.loadDuration, err = meter.Int64Histogram(
		"eventcore.repository.load.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Duration in milliseconds of aggregate.Repository.Load operations performed."),
	); err != nil {
		return fmt.Errorf("opentelemetry.InstrumentedRepository: failed to register metric, %w", err)
	}

	if ir.saveDuration, err = meter.Int64Histogram(
		"eventcore.repository.save.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Duration in milliseconds of aggregate.Repository.Save operations performed."),
	); err != nil {
		return fmt.Errorf("opentelemetry.InstrumentedRepository: failed to register metric, %w", err)
	}

	return nil
}

// NewInstrumentedRepository returns a wrapper type to provide OpenTelemetry
// instrumentation (metrics and traces) around an aggregate.Repository.
//
// An error is returned if metrics could not be registered.
func NewInstrumentedRepository(repository aggregate.Repository, options ...Option) (*InstrumentedRepository, error) {
	ir := &InstrumentedRepository{
		repository:      repository,
		instrumentation: newInstrumentation(options...),
	}

	if err := ir.registerMetrics(ir.meter()); err != nil {
		return nil, err
	}

	return ir, nil
}

// Load calls the wrapped aggregate.Repository.Load method and records metrics
// and traces around it.
func (ir *InstrumentedRepository) Load(
	ctx context.Context,
	keys partition.Keys,
	projector aggregate.Projector,
) (result aggregate.Aggregate, err error) {
	metricAttributes := []attribute.KeyValue{
		ProjectorAttribute.String(projector.Name()),
		RootPartitionKeyAttribute.String(keys.RootPartitionKey),
	}

	ctx, span := ir.startSpan(ctx, "aggregate.Repository.Load",
		append(metricAttributes, PartitionAttribute.String(keys.String()))...)
	start := time.Now()

	defer func() {
		ir.loadDuration.Record(ctx, time.Since(start).Milliseconds(), ir.measurement(err, metricAttributes...))

		if err == nil {
			span.SetAttributes(
				AggregateVersionAttribute.Int64(int64(result.Version)),
				AggregatePayloadAttribute.String(result.PayloadName()),
			)
		}

		endSpan(span, err)
	}()

	result, err = ir.repository.Load(ctx, keys, projector)

	return
}

// Save calls the wrapped aggregate.Repository.Save method and records metrics
// and traces around it.
func (ir *InstrumentedRepository) Save(ctx context.Context, events ...event.Event) (err error) {
	var metricAttributes []attribute.KeyValue

	spanAttributes := []attribute.KeyValue{NumEventsAttribute.Int(len(events))}

	if len(events) > 0 {
		keys := events[0].PartitionKeys
		metricAttributes = partitionAttributes(keys)

		spanAttributes = append(spanAttributes,
			PartitionAttribute.String(keys.String()),
			AggregateVersionAttribute.Int64(int64(events[len(events)-1].Version)),
		)
	}

	ctx, span := ir.startSpan(ctx, "aggregate.Repository.Save", spanAttributes...)
	start := time.Now()

	defer func() {
		ir.saveDuration.Record(ctx, time.Since(start).Milliseconds(), ir.measurement(err, metricAttributes...))

		endSpan(span, err)
	}()

	err = ir.repository.Save(ctx, events...)

	return
}
