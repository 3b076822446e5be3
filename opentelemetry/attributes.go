package opentelemetry

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/get-eventually/eventcore/version"
)

// Attribute keys used by the instrumentation.
const (
	ErrorAttribute                 attribute.Key = "error"
	ConflictAttribute              attribute.Key = "conflict"
	PartitionAttribute             attribute.Key = "partition"
	GroupAttribute                 attribute.Key = "partition.group"
	RootPartitionKeyAttribute      attribute.Key = "partition.root"
	ProjectorAttribute             attribute.Key = "aggregate.projector"
	AggregateVersionAttribute      attribute.Key = "aggregate.version"
	AggregatePayloadAttribute      attribute.Key = "aggregate.payload"
	StreamSelectorAttribute        attribute.Key = "event_stream.select_from_version"
	StreamExpectedVersionAttribute attribute.Key = "event_stream.expected_version"
	NumEventsAttribute             attribute.Key = "event_store.num_events"
)

func outcomeAttributes(err error) []attribute.KeyValue {
	return []attribute.KeyValue{
		ErrorAttribute.Bool(err != nil),
		ConflictAttribute.Bool(errors.As(err, new(version.ConflictError))),
	}
}
