package aggregate

import (
	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/message"
)

// Projector folds Domain Events into an Aggregate payload.
//
// Project must be a total, deterministic function: payload and event
// combinations that have no meaning for the Aggregate must return the
// payload unchanged, rather than failing.
type Projector interface {
	message.Message

	// Version identifies the revision of the projection logic.
	Version() string
	Project(payload Payload, evt event.Event) Payload
}

// ProjectorFunc is the function signature of a Projector fold.
type ProjectorFunc func(payload Payload, evt event.Event) Payload

type projector struct {
	name    string
	version string
	fn      ProjectorFunc
}

// NewProjector returns a Projector with the specified name and version,
// using the provided function as fold.
func NewProjector(name, version string, fn ProjectorFunc) Projector {
	return projector{name: name, version: version, fn: fn}
}

func (p projector) Name() string    { return p.name }
func (p projector) Version() string { return p.version }

func (p projector) Project(payload Payload, evt event.Event) Payload {
	return p.fn(payload, evt)
}
