package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/command"
	"github.com/get-eventually/eventcore/partition"
)

// All the errors returned by User commands.
var (
	ErrEmailExists  = errors.New("user: email already exists")
	ErrInvalidEmail = errors.New("user: invalid email, is empty")
	ErrInvalidName  = errors.New("user: invalid name, is empty")
)

// Injection carries the capabilities RegisterUser needs
// that are not part of the User Aggregate.
type Injection struct {
	EmailExists func(email string) bool
}

var (
	_ command.Injecting[Injection] = RegisterUser{}
	_ command.Handling             = ConfirmUser{}
	_ command.Restricted           = ConfirmUser{}
	_ command.Handling             = UnconfirmUser{}
	_ command.Restricted           = UnconfirmUser{}
)

// RegisterUser registers a new User, provided the email is not taken.
type RegisterUser struct {
	UserName string
	Email    string
	// ID of the new User. A fresh one is generated when nil.
	ID uuid.UUID
}

// Name implements message.Message.
func (RegisterUser) Name() string { return "RegisterUser" }

// Projector implements command.Routing.
func (RegisterUser) Projector() aggregate.Projector { return Projector{} }

// PartitionKeys implements command.Routing.
func (cmd RegisterUser) PartitionKeys() partition.Keys {
	if cmd.ID == uuid.Nil {
		return partition.Generate(Projector{}.Name())
	}

	return partition.Existing(cmd.ID, Projector{}.Name())
}

// HandleWith implements command.Injecting.
func (cmd RegisterUser) HandleWith(_ context.Context, inject Injection, _ *command.Context) (command.EventOrNone, error) {
	if cmd.UserName == "" {
		return command.None(), ErrInvalidName
	}

	if cmd.Email == "" {
		return command.None(), ErrInvalidEmail
	}

	if inject.EmailExists != nil && inject.EmailExists(cmd.Email) {
		return command.None(), ErrEmailExists
	}

	return command.Emit(Registered{UserName: cmd.UserName, Email: cmd.Email}), nil
}

// ConfirmUser confirms the registration of an unconfirmed User.
type ConfirmUser struct {
	UserID uuid.UUID
}

// Name implements message.Message.
func (ConfirmUser) Name() string { return "ConfirmUser" }

// Projector implements command.Routing.
func (ConfirmUser) Projector() aggregate.Projector { return Projector{} }

// PartitionKeys implements command.Routing.
func (cmd ConfirmUser) PartitionKeys() partition.Keys {
	return partition.Existing(cmd.UserID, Projector{}.Name())
}

// RequiredAggregate implements command.Restricted.
func (ConfirmUser) RequiredAggregate() aggregate.Restriction {
	return aggregate.Require[UnconfirmedUser]()
}

// Handle implements command.Handling.
func (ConfirmUser) Handle(_ context.Context, _ *command.Context) (command.EventOrNone, error) {
	return command.Emit(Confirmed{}), nil
}

// UnconfirmUser revokes the confirmation of a confirmed User.
type UnconfirmUser struct {
	UserID uuid.UUID
}

// Name implements message.Message.
func (UnconfirmUser) Name() string { return "UnconfirmUser" }

// Projector implements command.Routing.
func (UnconfirmUser) Projector() aggregate.Projector { return Projector{} }

// PartitionKeys implements command.Routing.
func (cmd UnconfirmUser) PartitionKeys() partition.Keys {
	return partition.Existing(cmd.UserID, Projector{}.Name())
}

// RequiredAggregate implements command.Restricted.
func (UnconfirmUser) RequiredAggregate() aggregate.Restriction {
	return aggregate.Require[ConfirmedUser]()
}

// Handle implements command.Handling.
func (UnconfirmUser) Handle(_ context.Context, _ *command.Context) (command.EventOrNone, error) {
	return command.Emit(Unconfirmed{}), nil
}
