package branch

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/command"
	"github.com/get-eventually/eventcore/partition"
)

// All the errors returned by Branch commands.
var (
	ErrEmptyName    = errors.New("branch: invalid name, is empty")
	ErrEmptyCountry = errors.New("branch: invalid country, is empty")
)

var (
	_ command.Handling   = RegisterBranch{}
	_ command.Handling   = ChangeBranchName{}
	_ command.Restricted = ChangeBranchName{}
)

// RegisterBranch registers a new Branch.
type RegisterBranch struct {
	BranchName string
	Country    string
	// ID of the new Branch. A fresh one is generated when nil.
	ID               uuid.UUID
	RootPartitionKey string
}

// Name implements message.Message.
func (RegisterBranch) Name() string { return "RegisterBranch" }

// Projector implements command.Routing.
func (RegisterBranch) Projector() aggregate.Projector { return Projector{} }

// PartitionKeys implements command.Routing.
func (cmd RegisterBranch) PartitionKeys() partition.Keys {
	opts := []partition.Option{partition.WithRootPartitionKey(cmd.RootPartitionKey)}

	if cmd.ID == uuid.Nil {
		return partition.Generate(Projector{}.Name(), opts...)
	}

	return partition.Existing(cmd.ID, Projector{}.Name(), opts...)
}

// Handle implements command.Handling.
func (cmd RegisterBranch) Handle(_ context.Context, c *command.Context) (command.EventOrNone, error) {
	if cmd.BranchName == "" {
		return command.None(), ErrEmptyName
	}

	if cmd.Country == "" {
		return command.None(), ErrEmptyCountry
	}

	if !c.Aggregate().IsEmpty() {
		return command.None(), nil
	}

	return command.Emit(Created{BranchName: cmd.BranchName, Country: cmd.Country}), nil
}

// ChangeBranchName renames an existing Branch.
type ChangeBranchName struct {
	BranchID     uuid.UUID
	NameToChange string
	// RootPartitionKey of the Branch, "default" when empty.
	RootPartitionKey string
}

// Name implements message.Message.
func (ChangeBranchName) Name() string { return "ChangeBranchName" }

// Projector implements command.Routing.
func (ChangeBranchName) Projector() aggregate.Projector { return Projector{} }

// PartitionKeys implements command.Routing.
func (cmd ChangeBranchName) PartitionKeys() partition.Keys {
	return partition.Keys{AggregateID: cmd.BranchID, RootPartitionKey: cmd.RootPartitionKey}
}

// RequiredAggregate implements command.Restricted.
func (ChangeBranchName) RequiredAggregate() aggregate.Restriction {
	return aggregate.Require[Branch]()
}

// Handle implements command.Handling.
//
// Renaming a Branch to its current name is a no-op.
func (cmd ChangeBranchName) Handle(_ context.Context, c *command.Context) (command.EventOrNone, error) {
	if cmd.NameToChange == "" {
		return command.None(), ErrEmptyName
	}

	current, err := aggregate.As[Branch](c.Aggregate())
	if err != nil {
		return command.None(), err
	}

	if current.Payload.BranchName == cmd.NameToChange {
		return command.None(), nil
	}

	return c.AppendEvent(NameChanged{BranchName: cmd.NameToChange})
}

// ChangeBranchCountry moves an existing Branch to another country.
//
// Unlike the other Branch commands, it does not describe its own handling:
// use ExecuteChangeBranchCountry.
type ChangeBranchCountry struct {
	BranchID         uuid.UUID
	Country          string
	RootPartitionKey string
}

// Name implements message.Message.
func (ChangeBranchCountry) Name() string { return "ChangeBranchCountry" }

// ChangeBranchCountryDefinition declares how ChangeBranchCountry is executed.
var ChangeBranchCountryDefinition = command.Definition[ChangeBranchCountry]{
	Projector: Projector{},
	PartitionKeys: func(cmd ChangeBranchCountry) partition.Keys {
		return partition.Keys{AggregateID: cmd.BranchID, RootPartitionKey: cmd.RootPartitionKey}
	},
	Restriction: aggregate.Require[Branch](),
}

// HandleChangeBranchCountry is the command.Handler of ChangeBranchCountry.
func HandleChangeBranchCountry(_ context.Context, cmd ChangeBranchCountry, _ *command.Context) (command.EventOrNone, error) {
	if cmd.Country == "" {
		return command.None(), ErrEmptyCountry
	}

	return command.Emit(CountryChanged{Country: cmd.Country}), nil
}

// ExecuteChangeBranchCountry executes the ChangeBranchCountry command.
func ExecuteChangeBranchCountry(ctx context.Context, e *command.Executor, cmd ChangeBranchCountry) (command.Response, error) {
	return command.Execute(ctx, e, cmd, ChangeBranchCountryDefinition, HandleChangeBranchCountry)
}
