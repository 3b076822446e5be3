// Package event contains the Domain Event model, the catalog of known
// Event payload types and the Event Store abstractions used to persist
// and stream the Events of a single partition.
package event

import (
	"fmt"

	"github.com/get-eventually/eventcore/message"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/sortable"
	"github.com/get-eventually/eventcore/version"
)

// Payload is a Message representing some Domain information that has happened
// in the past, which is of vital information to the Domain itself.
//
// Payload type names should be phrased in the past tense, to enforce the notion
// of "information happened in the past".
type Payload message.Message

// Event is a Payload that has been placed in a partition's Event Stream,
// at a specific Version and ordering key.
//
// Events are immutable once appended to an Event Store.
type Event struct {
	Payload          Payload
	PartitionKeys    partition.Keys
	SortableUniqueID sortable.ID
	Version          version.Version
}

// Name returns the name of the Event payload.
func (e Event) Name() string {
	if e.Payload == nil {
		return ""
	}

	return e.Payload.Name()
}

// Catalog knows how to wrap a Payload into an Event.
//
// Catalog implementations must refuse payload types they have no knowledge of,
// by returning an UnregisteredTypeError.
type Catalog interface {
	GenerateTypedEvent(
		payload Payload,
		keys partition.Keys,
		id sortable.ID,
		v version.Version,
	) (Event, error)
}

// UnregisteredTypeError is returned by a Catalog when asked to handle
// a payload type that has not been registered.
type UnregisteredTypeError struct {
	Name string
	Type string
}

func (err UnregisteredTypeError) Error() string {
	return fmt.Sprintf("event.Catalog: unregistered event type %q (%s)", err.Name, err.Type)
}
