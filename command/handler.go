package command

import (
	"context"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/partition"
)

// Handler is the plain Command handler shape.
//
// The handler validates the Command against the Aggregate in the Context,
// and either emits an Event payload, appends Events through the Context,
// returns None, or fails.
type Handler[C Command] func(ctx context.Context, cmd C, c *Context) (EventOrNone, error)

// InjectedHandler is the Command handler shape receiving an injected capability,
// such as a lookup function on a side table.
type InjectedHandler[C Command, I any] func(ctx context.Context, cmd C, inject I, c *Context) (EventOrNone, error)

// Definition declares how a Command type is executed, as data.
type Definition[C Command] struct {
	// Projector reconstructs the Aggregate the Command is executed against.
	Projector aggregate.Projector
	// PartitionKeys derives the partition of the Aggregate from the Command.
	PartitionKeys func(C) partition.Keys
	// Restriction optionally requires the Aggregate payload to be of a specific type.
	Restriction aggregate.Restriction
}

// Routing is implemented by Commands carrying their own Projector
// and partition keys derivation.
type Routing interface {
	Command

	Projector() aggregate.Projector
	PartitionKeys() partition.Keys
}

// Handling is a self-describing Command with a plain handler.
type Handling interface {
	Routing

	Handle(ctx context.Context, c *Context) (EventOrNone, error)
}

// Injecting is a self-describing Command with a handler receiving
// an injected capability of type I.
type Injecting[I any] interface {
	Routing

	HandleWith(ctx context.Context, inject I, c *Context) (EventOrNone, error)
}

// Restricted is optionally implemented by self-describing Commands
// that require the Aggregate payload to be of a specific type.
type Restricted interface {
	RequiredAggregate() aggregate.Restriction
}

func restrictionOf(cmd Command) aggregate.Restriction {
	if r, ok := cmd.(Restricted); ok {
		return r.RequiredAggregate()
	}

	return aggregate.Restriction{}
}
