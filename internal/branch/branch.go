// Package branch is a small domain modeling company branches,
// registered in a country and renamed over time.
package branch

import (
	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/event"
)

// Branch is the Aggregate payload of a registered Branch.
type Branch struct {
	BranchName string `json:"name"`
	Country    string `json:"country"`
}

// Name implements message.Message.
func (Branch) Name() string { return "Branch" }

var _ aggregate.Projector = Projector{}

// Projector folds Branch events into the Branch payload.
type Projector struct{}

// Name implements message.Message.
func (Projector) Name() string { return "Branch" }

// Version implements aggregate.Projector.
func (Projector) Version() string { return "1.0" }

// Project implements aggregate.Projector.
func (Projector) Project(payload aggregate.Payload, evt event.Event) aggregate.Payload {
	switch current := payload.(type) {
	case aggregate.Empty:
		if created, ok := evt.Payload.(Created); ok {
			return Branch{BranchName: created.BranchName, Country: created.Country}
		}

	case Branch:
		switch e := evt.Payload.(type) {
		case NameChanged:
			current.BranchName = e.BranchName
			return current
		case CountryChanged:
			current.Country = e.Country
			return current
		}
	}

	return payload
}
