// Package command contains the Command execution pipeline.
//
// A Command is executed against the Aggregate of a single partition:
// the pipeline derives the partition keys from the Command, loads the
// Aggregate through an aggregate.Repository, checks the optional payload
// type restriction, invokes the handler with a request-scoped Context,
// materializes the produced Domain Events through an event.Catalog and
// saves them, all or nothing.
//
// Handlers come in two shapes: plain handlers, and handlers receiving an
// injected capability (e.g. a uniqueness lookup) that is not part of the
// persisted state.
package command

import (
	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/message"
)

// Command is a Message representing an action being performed by something
// or somebody.
//
// In order to enforce this concept, it is suggested to name Command types
// using "present tense".
type Command message.Message

// EventOrNone is the result of a Command handler: either a single new
// Event payload, or a deliberate no-op.
type EventOrNone struct {
	payload event.Payload
}

// Emit returns an EventOrNone carrying the specified payload.
func Emit(payload event.Payload) EventOrNone {
	return EventOrNone{payload: payload}
}

// None returns an EventOrNone carrying no payload.
func None() EventOrNone {
	return EventOrNone{}
}

// HasEvent reports whether an Event payload has been emitted.
func (e EventOrNone) HasEvent() bool { return e.payload != nil }

// Payload returns the emitted payload, if any.
func (e EventOrNone) Payload() (event.Payload, bool) {
	return e.payload, e.payload != nil
}
