package opentelemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/version"
)

var _ event.Store = new(InstrumentedEventStore)

// InstrumentedEventStore is a wrapper type over an event.Store
// instance to provide instrumentation, in the form of metrics and traces
// using OpenTelemetry.
//
// Use NewInstrumentedEventStore for constructing a new instance of this type.
type InstrumentedEventStore struct {
	eventStore event.Store

	*instrumentation
	streamDuration metric.Int64Histogram
	appendDuration metric.Int64Histogram
	appendedEvents metric.Int64Counter
}

func (ies *InstrumentedEventStore) registerMetrics(meter metric.Meter) error {
	var err error

	if ies.streamDuration, err = meter.Int64Histogram(
		"eventcore.event_store.stream.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Duration in milliseconds of event.Store.Stream operations performed."),
	); err != nil {
		return fmt.Errorf("opentelemetry.InstrumentedEventStore: failed to register metric, %w", err)
	}

	if ies.appendDuration, err = meter.Int64Histogram(
		"eventcore.event_store.append.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Duration in milliseconds of event.Store.Append operations performed."),
	); err != nil {
		return fmt.Errorf("opentelemetry.InstrumentedEventStore: failed to register metric, %w", err)
	}

	if ies.appendedEvents, err = meter.Int64Counter(
		"eventcore.event_store.appended_events",
		metric.WithDescription("Number of events appended through event.Store.Append."),
	); err != nil {
		return fmt.Errorf("opentelemetry.InstrumentedEventStore: failed to register metric, %w", err)
	}

	return nil
}

// NewInstrumentedEventStore returns a wrapper type to provide OpenTelemetry
// instrumentation (metrics and traces) around an event.Store.
//
// An error is returned if metrics could not be registered.
func NewInstrumentedEventStore(eventStore event.Store, options ...Option) (*InstrumentedEventStore, error) {
	ies := &InstrumentedEventStore{
		eventStore:      eventStore,
		instrumentation: newInstrumentation(options...),
	}

	if err := ies.registerMetrics(ies.meter()); err != nil {
		return nil, err
	}

	return ies, nil
}

func partitionAttributes(keys partition.Keys) []attribute.KeyValue {
	return []attribute.KeyValue{
		GroupAttribute.String(keys.Group),
		RootPartitionKeyAttribute.String(keys.RootPartitionKey),
	}
}

// Stream calls the wrapped event.Store.Stream method and records metrics and traces around it.
func (ies *InstrumentedEventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	keys partition.Keys,
	selector version.Selector,
) (err error) {
	metricAttributes := partitionAttributes(keys)

	//nolint:gocritic // Not appending to the same slice done on purpose.
	spanAttributes := append(metricAttributes,
		PartitionAttribute.String(keys.String()),
		StreamSelectorAttribute.Int64(int64(selector.From)),
	)

	ctx, span := ies.startSpan(ctx, "event.Store.Stream", spanAttributes...)
	start := time.Now()

	defer func() {
		ies.streamDuration.Record(ctx, time.Since(start).Milliseconds(), ies.measurement(err, metricAttributes...))

		endSpan(span, err)
	}()

	err = ies.eventStore.Stream(ctx, stream, keys, selector)

	return
}

// Append calls the wrapped event.Store.Append method and records metrics and traces around it.
func (ies *InstrumentedEventStore) Append(
	ctx context.Context,
	keys partition.Keys,
	expected version.Check,
	events ...event.Event,
) (newVersion version.Version, err error) {
	expectedVersion := int64(-1)
	if v, ok := expected.(version.CheckExact); ok {
		expectedVersion = int64(v)
	}

	metricAttributes := partitionAttributes(keys)

	//nolint:gocritic // Not appending to the same slice done on purpose.
	spanAttributes := append(metricAttributes,
		PartitionAttribute.String(keys.String()),
		StreamExpectedVersionAttribute.Int64(expectedVersion),
		NumEventsAttribute.Int(len(events)),
	)

	ctx, span := ies.startSpan(ctx, "event.Store.Append", spanAttributes...)
	start := time.Now()

	defer func() {
		attributes := ies.measurement(err, metricAttributes...)

		ies.appendDuration.Record(ctx, time.Since(start).Milliseconds(), attributes)

		if err == nil {
			ies.appendedEvents.Add(ctx, int64(len(events)), attributes)
		}

		endSpan(span, err)
	}()

	newVersion, err = ies.eventStore.Append(ctx, keys, expected, events...)

	return
}
