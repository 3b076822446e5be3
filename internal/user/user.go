// Package user serves as a small domain example of how to model
// an Aggregate with several states, and a Command that depends on
// an injected capability.
package user

import (
	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/event"
)

// UnconfirmedUser is the Aggregate payload of a User that has not confirmed
// the registration yet.
type UnconfirmedUser struct {
	UserName string `json:"name"`
	Email    string `json:"email"`
}

// Name implements message.Message.
func (UnconfirmedUser) Name() string { return "UnconfirmedUser" }

// ConfirmedUser is the Aggregate payload of a User that has confirmed the registration.
type ConfirmedUser struct {
	UserName string `json:"name"`
	Email    string `json:"email"`
}

// Name implements message.Message.
func (ConfirmedUser) Name() string { return "ConfirmedUser" }

var _ aggregate.Projector = Projector{}

// Projector folds User events into the User payloads.
type Projector struct{}

// Name implements message.Message.
func (Projector) Name() string { return "User" }

// Version implements aggregate.Projector.
func (Projector) Version() string { return "1.0.1" }

// Project implements aggregate.Projector.
func (Projector) Project(payload aggregate.Payload, evt event.Event) aggregate.Payload {
	switch current := payload.(type) {
	case aggregate.Empty:
		if registered, ok := evt.Payload.(Registered); ok {
			return UnconfirmedUser{UserName: registered.UserName, Email: registered.Email}
		}

	case UnconfirmedUser:
		if _, ok := evt.Payload.(Confirmed); ok {
			return ConfirmedUser(current)
		}

	case ConfirmedUser:
		if _, ok := evt.Payload.(Unconfirmed); ok {
			return UnconfirmedUser(current)
		}
	}

	return payload
}
