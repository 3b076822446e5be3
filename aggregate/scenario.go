package aggregate

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/sortable"
	"github.com/get-eventually/eventcore/version"
)

// ScenarioInit is the entrypoint of the Projector scenario API.
//
// A Projector scenario sets the Domain Events of a partition with Given(),
// then asserts the resulting Aggregate with Then().
type ScenarioInit struct {
	projector Projector
}

// Scenario is a scenario type to test the result of folding Domain Events
// through a Projector.
//
// On top of the expected outcome, the scenario asserts that the projection
// is deterministic and independent of the order the Events are provided in.
func Scenario(projector Projector) ScenarioInit {
	return ScenarioInit{projector: projector}
}

// Given sets the Domain Events of the partition as precondition to the scenario.
func (sc ScenarioInit) Given(events ...event.Event) ScenarioGiven {
	keys := partition.Generate(sc.projector.Name())
	if len(events) > 0 {
		keys = events[0].PartitionKeys
	}

	return ScenarioGiven{
		projector: sc.projector,
		keys:      keys,
		given:     events,
	}
}

// GivenPayloads is like Given, but wraps the payloads into Events of the partition
// identified by keys, with contiguous versions starting from 1 and increasing ordering keys.
func (sc ScenarioInit) GivenPayloads(keys partition.Keys, payloads ...event.Payload) ScenarioGiven {
	return ScenarioGiven{
		projector: sc.projector,
		keys:      keys,
		given:     EventsOf(keys, payloads...),
	}
}

// EventsOf wraps the payloads into Events of the partition identified by keys,
// with contiguous versions starting from 1 and increasing ordering keys.
//
// Useful for tests.
func EventsOf(keys partition.Keys, payloads ...event.Payload) []event.Event {
	clock := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	generator := &sortable.Generator{
		Clock: func() time.Time { return clock },
		NewID: uuid.New,
	}

	events := make([]event.Event, 0, len(payloads))
	for i, payload := range payloads {
		events = append(events, event.Event{
			Payload:          payload,
			PartitionKeys:    keys,
			SortableUniqueID: generator.Current(),
			Version:          version.Version(i + 1),
		})
	}

	return events
}

// ScenarioGiven is the state of the scenario once the Domain Events
// have been set through the Scenario().Given() method.
type ScenarioGiven struct {
	projector Projector
	keys      partition.Keys
	given     []event.Event
}

// Then specifies the expected payload and version of the resulting Aggregate.
func (sc ScenarioGiven) Then(expected Payload, v version.Version) ScenarioThen {
	return ScenarioThen{
		ScenarioGiven: sc,
		payload:       expected,
		version:       v,
	}
}

// ScenarioThen is the state of the scenario where all parameters have
// been set and it's ready to be executed using a testing.T instance.
//
// Use the AssertOn method to run the test scenario.
type ScenarioThen struct {
	ScenarioGiven

	payload Payload
	version version.Version
}

// AssertOn runs the test scenario using the specified testing.T instance.
func (sc ScenarioThen) AssertOn(t *testing.T) {
	t.Helper()

	agg := FromEvents(sc.keys, sc.projector, sc.given...)

	assert.Equal(t, sc.payload, agg.Payload)
	assert.Equal(t, sc.version, agg.Version)
	assert.Equal(t, sc.keys, agg.PartitionKeys)

	reversed := make([]event.Event, 0, len(sc.given))
	for i := len(sc.given) - 1; i >= 0; i-- {
		reversed = append(reversed, sc.given[i])
	}

	assert.Equal(t, agg, FromEvents(sc.keys, sc.projector, reversed...),
		"projection should not depend on the order events are provided in")
	assert.Equal(t, agg, FromEvents(sc.keys, sc.projector, sc.given...),
		"projection should be deterministic")
}
