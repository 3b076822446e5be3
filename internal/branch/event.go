package branch

import (
	"fmt"

	"github.com/get-eventually/eventcore/event"
)

// Event is the closed set of Branch Domain Event payloads.
type Event interface {
	event.Payload
	isBranchEvent()
}

var (
	_ Event = Created{}
	_ Event = NameChanged{}
	_ Event = CountryChanged{}
)

// Created is the domain event fired after a Branch is registered.
type Created struct {
	BranchName string `json:"name"`
	Country    string `json:"country"`
}

// Name implements message.Message.
func (Created) Name() string   { return "BranchCreated" }
func (Created) isBranchEvent() {}

// NameChanged is the domain event fired after a Branch name is changed.
type NameChanged struct {
	BranchName string `json:"name"`
}

// Name implements message.Message.
func (NameChanged) Name() string   { return "BranchNameChanged" }
func (NameChanged) isBranchEvent() {}

// CountryChanged is the domain event fired after a Branch moves to another country.
type CountryChanged struct {
	Country string `json:"country"`
}

// Name implements message.Message.
func (CountryChanged) Name() string   { return "BranchCountryChanged" }
func (CountryChanged) isBranchEvent() {}

// Register adds the Branch Domain Event payloads to the Registry.
func Register(r *event.Registry) error {
	for _, register := range []func(*event.Registry) error{
		event.Register[Created],
		event.Register[NameChanged],
		event.Register[CountryChanged],
	} {
		if err := register(r); err != nil {
			return fmt.Errorf("branch.Register: %w", err)
		}
	}

	return nil
}
