package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/version"
)

// ScenarioInit is the entrypoint of the Command scenario API.
//
// A Command scenario can either set the current evaluation context
// by using Given(), or test a "clean-slate" scenario by using When() directly.
type ScenarioInit[C Command] struct {
	catalog event.Catalog
}

// Scenario is a scenario type to test the result of Commands
// being executed against the Events of the system.
//
// Command handlers in Event-sourced systems produce side effects by means
// of Domain Events. This scenario API helps you with testing the Domain Events
// produced by a Command, using the provided Catalog to materialize them.
func Scenario[C Command](catalog event.Catalog) ScenarioInit[C] {
	return ScenarioInit[C]{catalog: catalog}
}

// Given sets the Command scenario preconditions.
//
// Domain Events are used in Event-sourced systems to represent a side effect
// that has taken place in the system. In order to set a given state for the
// system to be in while testing a specific Command evaluation, you should
// specify the Domain Events that have happened thus far.
func (sc ScenarioInit[C]) Given(events ...event.Event) ScenarioGiven[C] {
	return ScenarioGiven[C]{
		catalog: sc.catalog,
		given:   events,
	}
}

// When provides the Command to evaluate.
func (sc ScenarioInit[C]) When(cmd C) ScenarioWhen[C] {
	return sc.Given().When(cmd)
}

// ScenarioGiven is the state of the scenario once
// a set of Domain Events have been provided using Given(), to represent
// the state of the system at the time of evaluating a Command.
type ScenarioGiven[C Command] struct {
	catalog event.Catalog
	given   []event.Event
}

// When provides the Command to evaluate.
func (sc ScenarioGiven[C]) When(cmd C) ScenarioWhen[C] {
	return ScenarioWhen[C]{
		ScenarioGiven: sc,
		when:          cmd,
	}
}

// ScenarioWhen is the state of the scenario once the state of the
// system and the Command to evaluate have been provided.
type ScenarioWhen[C Command] struct {
	ScenarioGiven[C]

	when C
}

// Then sets a positive expectation on the scenario outcome, to produce
// the Domain Event payloads provided in input, leaving the Aggregate at the specified version.
//
// The list of payloads specified should be ordered as the expected
// order of recording by the Command handler.
func (sc ScenarioWhen[C]) Then(v version.Version, payloads ...event.Payload) ScenarioThen[C] {
	return ScenarioThen[C]{
		ScenarioWhen: sc,
		version:      v,
		then:         payloads,
	}
}

// ThenError sets a negative expectation on the scenario outcome,
// to produce an error value that is similar to the one provided in input.
//
// Error assertion happens using errors.Is(), so the error returned
// by the Command execution is unwrapped until the cause error to match
// the provided expectation.
func (sc ScenarioWhen[C]) ThenError(err error) ScenarioThen[C] {
	return ScenarioThen[C]{
		ScenarioWhen: sc,
		thenError:    err,
		wantError:    true,
	}
}

// ThenErrorAs sets a negative expectation on the scenario outcome,
// to produce an error that can be assigned to target through errors.As().
func (sc ScenarioWhen[C]) ThenErrorAs(target any) ScenarioThen[C] {
	return ScenarioThen[C]{
		ScenarioWhen: sc,
		errorTarget:  target,
		wantError:    true,
	}
}

// ThenFails sets a negative expectation on the scenario outcome,
// to fail the Command execution with no particular assertion on the error returned.
func (sc ScenarioWhen[C]) ThenFails() ScenarioThen[C] {
	return ScenarioThen[C]{
		ScenarioWhen: sc,
		wantError:    true,
	}
}

// ScenarioThen is the state of the scenario once the preconditions
// and expectations have been fully specified.
type ScenarioThen[C Command] struct {
	ScenarioWhen[C]

	version     version.Version
	then        []event.Payload
	thenError   error
	errorTarget any
	wantError   bool
}

// AssertOn performs the specified expectations of the scenario, by running
// the Command through the provided function with an Executor backed by an
// in-memory Event Store holding the Given events.
//
// Failed executions must leave the Event Store untouched.
func (sc ScenarioThen[C]) AssertOn( //nolint:gocritic
	t *testing.T,
	execute func(ctx context.Context, e *Executor, cmd C) (Response, error),
) {
	t.Helper()

	ctx := context.Background()
	store := event.NewInMemoryStore()

	for _, evt := range sc.given {
		_, err := store.Append(ctx, evt.PartitionKeys, version.Any, evt)
		if !assert.NoError(t, err) {
			return
		}
	}

	trackingStore := event.NewTrackingStore(store)
	repository := aggregate.NewEventSourcedRepository(event.FusedStore{
		Appender: trackingStore,
		Streamer: store,
	})

	response, err := execute(ctx, NewExecutor(repository, sc.catalog), sc.when)

	if sc.wantError {
		assert.Error(t, err)
		assert.Empty(t, trackingStore.Recorded(), "no events should be persisted by a failed command")

		if sc.thenError != nil {
			assert.ErrorIs(t, err, sc.thenError)
		}

		if sc.errorTarget != nil {
			assert.ErrorAs(t, err, sc.errorTarget)
		}

		return
	}

	if !assert.NoError(t, err) {
		return
	}

	recorded := trackingStore.Recorded()
	payloads := make([]event.Payload, 0, len(recorded))

	for _, evt := range recorded {
		payloads = append(payloads, evt.Payload)
		assert.Equal(t, response.PartitionKeys, evt.PartitionKeys)
	}

	if len(sc.then) == 0 {
		assert.Empty(t, payloads)
	} else {
		assert.Equal(t, sc.then, payloads)
	}

	assert.Equal(t, recorded, emptyIfNil(response.Events))
	assert.Equal(t, sc.version, response.Version)
}

func emptyIfNil(events []event.Event) []event.Event {
	if len(events) == 0 {
		return []event.Event{}
	}

	return events
}
