package command

import (
	"fmt"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/sortable"
)

// Context is the request-scoped state of a single Command execution.
//
// It holds the current Aggregate view and the Events produced so far.
// A Context must not be shared across Command executions.
type Context struct {
	aggregate aggregate.Aggregate
	projector aggregate.Projector
	catalog   event.Catalog
	ids       *sortable.Generator
	events    []event.Event
}

// Aggregate returns the current Aggregate view, including the Events
// appended through AppendEvent.
func (c *Context) Aggregate() aggregate.Aggregate { return c.aggregate }

// Events returns the Events produced so far.
func (c *Context) Events() []event.Event {
	events := make([]event.Event, len(c.events))
	copy(events, c.events)

	return events
}

// AppendEvent materializes the payload into an Event following the current
// Aggregate version, folds it into the Aggregate view and records it for persistence.
//
// The Event ordering key always sorts after the last one of the Aggregate,
// even if that was produced by a writer with a clock running ahead.
//
// It always returns None on success, so handlers can end with
// `return ctx.AppendEvent(payload)` when the appended Event is the last one.
func (c *Context) AppendEvent(payload event.Payload) (EventOrNone, error) {
	evt, err := c.catalog.GenerateTypedEvent(
		payload,
		c.aggregate.PartitionKeys,
		c.ids.CurrentAfter(c.aggregate.LastSortableUniqueID),
		c.aggregate.Version.Next(),
	)
	if err != nil {
		return None(), fmt.Errorf("command.Context: failed to append event, %w", err)
	}

	c.aggregate = c.aggregate.Project(c.projector, evt)
	c.events = append(c.events, evt)

	return None(), nil
}
