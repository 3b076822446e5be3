// Package aggregate contains the Aggregate model, the Projector abstraction
// used to fold Domain Events into Aggregate state, and the Repository
// used to load and save Aggregates from an Event Store.
//
// An Aggregate is not mutated by the Domain Events it receives: projecting
// an Event always returns a new Aggregate value.
package aggregate

import (
	"fmt"

	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/message"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/sortable"
	"github.com/get-eventually/eventcore/version"
)

// Payload is the state of an Aggregate.
//
// Domains usually express the different states of an Aggregate
// as distinct Payload types (e.g. UnconfirmedUser and ConfirmedUser).
type Payload message.Message

// Empty is the Payload of an Aggregate with no Domain Events.
type Empty struct{}

// Name implements the message.Message interface.
func (Empty) Name() string { return "EmptyAggregatePayload" }

// Aggregate is the state of a partition, resulting from the projection
// of all its Domain Events.
type Aggregate struct {
	Payload              Payload
	PartitionKeys        partition.Keys
	Version              version.Version
	LastSortableUniqueID sortable.ID
}

// EmptyFrom returns the Aggregate of a partition with no Domain Events.
func EmptyFrom(keys partition.Keys) Aggregate {
	return Aggregate{
		Payload:       Empty{},
		PartitionKeys: keys,
	}
}

// IsEmpty reports whether the Aggregate has no Domain Events.
func (a Aggregate) IsEmpty() bool {
	_, ok := a.Payload.(Empty)
	return ok
}

// PayloadName returns the name of the Aggregate payload.
func (a Aggregate) PayloadName() string {
	if a.Payload == nil {
		return ""
	}

	return a.Payload.Name()
}

// Project applies a single Domain Event to the Aggregate, returning the new Aggregate.
//
// The resulting Aggregate takes the Event version and ordering key.
func (a Aggregate) Project(projector Projector, evt event.Event) Aggregate {
	return Aggregate{
		Payload:              projector.Project(a.Payload, evt),
		PartitionKeys:        a.PartitionKeys,
		Version:              evt.Version,
		LastSortableUniqueID: evt.SortableUniqueID,
	}
}

// ProjectAll applies all the Domain Events to the Aggregate, sorted by their
// ordering key, returning the new Aggregate.
//
// The provided slice is not modified.
func (a Aggregate) ProjectAll(projector Projector, events ...event.Event) Aggregate {
	for _, evt := range event.Sorted(events) {
		a = a.Project(projector, evt)
	}

	return a
}

// FromEvents reconstructs the Aggregate of the partition identified by keys
// from its Domain Events, in any order.
func FromEvents(keys partition.Keys, projector Projector, events ...event.Event) Aggregate {
	return EmptyFrom(keys).ProjectAll(projector, events...)
}

// TypeMismatchError is returned when an Aggregate payload is not of the requested type.
type TypeMismatchError struct {
	Expected string
	Actual   string
}

func (err TypeMismatchError) Error() string {
	return fmt.Sprintf("aggregate: type mismatch, expected %s payload, found %s", err.Expected, err.Actual)
}

// Typed is a view of an Aggregate with a concrete Payload type.
type Typed[T Payload] struct {
	Payload              T
	PartitionKeys        partition.Keys
	Version              version.Version
	LastSortableUniqueID sortable.ID
}

// Untyped returns the Aggregate behind the typed view.
func (t Typed[T]) Untyped() Aggregate {
	return Aggregate{
		Payload:              t.Payload,
		PartitionKeys:        t.PartitionKeys,
		Version:              t.Version,
		LastSortableUniqueID: t.LastSortableUniqueID,
	}
}

// As returns a typed view of the Aggregate, or a TypeMismatchError
// if its payload is not of type T.
func As[T Payload](a Aggregate) (Typed[T], error) {
	payload, ok := a.Payload.(T)
	if !ok {
		var zeroValue T

		return Typed[T]{}, TypeMismatchError{
			Expected: zeroValue.Name(),
			Actual:   a.PayloadName(),
		}
	}

	return Typed[T]{
		Payload:              payload,
		PartitionKeys:        a.PartitionKeys,
		Version:              a.Version,
		LastSortableUniqueID: a.LastSortableUniqueID,
	}, nil
}
