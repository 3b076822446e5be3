package user

import (
	"fmt"

	"github.com/get-eventually/eventcore/event"
)

// Event is the closed set of User Domain Event payloads.
type Event interface {
	event.Payload
	isUserEvent()
}

var (
	_ Event = Registered{}
	_ Event = Confirmed{}
	_ Event = Unconfirmed{}
)

// Registered is the domain event fired after a User registers.
type Registered struct {
	UserName string `json:"name"`
	Email    string `json:"email"`
}

// Name implements message.Message.
func (Registered) Name() string { return "UserRegistered" }
func (Registered) isUserEvent() {}

// Confirmed is the domain event fired after a User confirms the registration.
type Confirmed struct{}

// Name implements message.Message.
func (Confirmed) Name() string { return "UserConfirmed" }
func (Confirmed) isUserEvent() {}

// Unconfirmed is the domain event fired after a User confirmation is revoked.
type Unconfirmed struct{}

// Name implements message.Message.
func (Unconfirmed) Name() string { return "UserUnconfirmed" }
func (Unconfirmed) isUserEvent() {}

// Register adds the User Domain Event payloads to the Registry.
func Register(r *event.Registry) error {
	for _, register := range []func(*event.Registry) error{
		event.Register[Registered],
		event.Register[Confirmed],
		event.Register[Unconfirmed],
	} {
		if err := register(r); err != nil {
			return fmt.Errorf("user.Register: %w", err)
		}
	}

	return nil
}
