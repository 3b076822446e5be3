package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/sortable"
	"github.com/get-eventually/eventcore/version"
)

// SuitePayload is the payload type appended by StoreSuite.
// Durable Event Stores under test must be able to decode it,
// see NewSuiteRegistry.
type SuitePayload struct {
	Value int `json:"value"`
}

// Name implements the message.Message interface.
func (SuitePayload) Name() string { return "StoreSuitePayload" }

// NewSuiteRegistry returns a Registry with SuitePayload registered.
func NewSuiteRegistry() *Registry {
	r := NewRegistry()
	MustRegister[SuitePayload](r)

	return r
}

var suiteEpoch = time.Date(2024, time.October, 1, 12, 0, 0, 0, time.UTC)

// StoreSuite is a full testing suite for an event.Store instance.
type StoreSuite struct {
	suite.Suite

	storeFactory func() Store
	eventStore   Store // NOTE: this instance is initialized in SetupTest.
}

// NewStoreSuite creates a new Event Store testing suite using the provided
// event.Store type.
func NewStoreSuite(factory func() Store) *StoreSuite {
	ss := new(StoreSuite)
	ss.storeFactory = factory

	return ss
}

// SetupTest creates a new, fresh Event Store instance for each test in the suite.
func (ss *StoreSuite) SetupTest() {
	ss.eventStore = ss.storeFactory()
}

func suiteKeys(group string) partition.Keys {
	return partition.Generate(group)
}

func suiteEvents(keys partition.Keys, from version.Version, values ...int) []Event {
	events := make([]Event, 0, len(values))

	for i, value := range values {
		v := from + version.Version(i)
		events = append(events, Event{
			Payload:          SuitePayload{Value: value},
			PartitionKeys:    keys,
			SortableUniqueID: sortable.Generate(suiteEpoch.Add(time.Duration(v)*time.Millisecond), uuid.New()),
			Version:          v,
		})
	}

	return events
}

func (ss *StoreSuite) stream(ctx context.Context, keys partition.Keys, selector version.Selector) []Event {
	events, err := StreamToSlice(ctx, func(ctx context.Context, stream StreamWrite) error {
		return ss.eventStore.Stream(ctx, stream, keys, selector)
	})

	ss.Require().NoError(err)

	return events
}

// TestStreamAndAppend tests the event.Streamer and event.Appender functions
// using the provided Event Store instance.
func (ss *StoreSuite) TestStreamAndAppend() {
	ctx := context.Background()

	first, second := suiteKeys("first-type"), suiteKeys("second-type")
	firstEvents := suiteEvents(first, 1, 1, 2, 3)
	secondEvents := suiteEvents(second, 1, 10, 20, 30)

	for i := range firstEvents {
		v, err := ss.eventStore.Append(ctx, first, version.CheckExact(i), firstEvents[i])
		ss.Require().NoError(err)
		ss.Equal(version.Version(i+1), v)

		v, err = ss.eventStore.Append(ctx, second, version.CheckExact(i), secondEvents[i])
		ss.Require().NoError(err)
		ss.Equal(version.Version(i+1), v)
	}

	ss.Equal(firstEvents, ss.stream(ctx, first, version.SelectFromBeginning))
	ss.Equal(secondEvents, ss.stream(ctx, second, version.SelectFromBeginning))

	// Selecting from a version only yields the events from there.
	ss.Equal(firstEvents[1:], ss.stream(ctx, first, version.Selector{From: 2}))

	// Streaming with an out-of-bound Selector will yield empty elements.
	ss.Empty(ss.stream(ctx, first, version.Selector{From: 4}))

	// Partitions differing only by root partition key are separate streams.
	tenant := first
	tenant.RootPartitionKey = "another-tenant"
	ss.Empty(ss.stream(ctx, tenant, version.SelectFromBeginning))
}

// TestEmptyStream tests that an unknown partition streams no events, without errors.
func (ss *StoreSuite) TestEmptyStream() {
	ss.Empty(ss.stream(context.Background(), suiteKeys("unknown"), version.SelectFromBeginning))
}

// TestAppendBatch tests appending multiple events in a single call.
func (ss *StoreSuite) TestAppendBatch() {
	ctx := context.Background()
	keys := suiteKeys("batch-type")

	v, err := ss.eventStore.Append(ctx, keys, version.CheckExact(0), suiteEvents(keys, 1, 1, 2)...)
	ss.Require().NoError(err)
	ss.Equal(version.Version(2), v)

	v, err = ss.eventStore.Append(ctx, keys, version.Any, suiteEvents(keys, 3, 3, 4, 5)...)
	ss.Require().NoError(err)
	ss.Equal(version.Version(5), v)

	events := ss.stream(ctx, keys, version.SelectFromBeginning)
	ss.Require().Len(events, 5)

	for i, evt := range events {
		ss.Equal(version.Version(i+1), evt.Version)
		ss.Equal(SuitePayload{Value: i + 1}, evt.Payload)
	}
}

// TestConflict tests the optimistic concurrency handling of the Event Store.
func (ss *StoreSuite) TestConflict() {
	ctx := context.Background()
	keys := suiteKeys("conflict-type")

	_, err := ss.eventStore.Append(ctx, keys, version.CheckExact(0), suiteEvents(keys, 1, 1)...)
	ss.Require().NoError(err)

	// Appending with the same expected version should fail!
	_, err = ss.eventStore.Append(ctx, keys, version.CheckExact(0), suiteEvents(keys, 1, 2)...)

	var conflictErr version.ConflictError

	ss.Require().ErrorAs(err, &conflictErr)
	ss.Equal(version.ConflictError{Expected: 0, Actual: 1}, conflictErr)

	// Versions must stay contiguous, even without an expected version.
	_, err = ss.eventStore.Append(ctx, keys, version.Any, suiteEvents(keys, 3, 3)...)
	ss.Require().ErrorAs(err, &conflictErr)
	ss.Equal(version.ConflictError{Expected: 2, Actual: 1}, conflictErr)

	ss.Len(ss.stream(ctx, keys, version.SelectFromBeginning), 1)
}

// TestAtomicity tests that a rejected batch leaves no trace in the Event Stream.
func (ss *StoreSuite) TestAtomicity() {
	ctx := context.Background()
	keys, other := suiteKeys("atomic-type"), suiteKeys("atomic-type")

	batch := suiteEvents(keys, 1, 1, 2, 3)
	batch[2].PartitionKeys = other

	_, err := ss.eventStore.Append(ctx, keys, version.CheckExact(0), batch...)
	ss.Require().ErrorIs(err, ErrInvalidBatch)

	ss.Empty(ss.stream(ctx, keys, version.SelectFromBeginning))
	ss.Empty(ss.stream(ctx, other, version.SelectFromBeginning))
}

// TestConcurrentAppends tests that only one of many concurrent writers
// expecting the same version succeeds.
func (ss *StoreSuite) TestConcurrentAppends() {
	const writers = 8

	ctx := context.Background()
	keys := suiteKeys("concurrent-type")

	var (
		wg        sync.WaitGroup
		mx        sync.Mutex
		successes int
		conflicts int
		failures  []error
	)

	for i := 0; i < writers; i++ {
		wg.Add(1)

		go func(value int) {
			defer wg.Done()

			_, err := ss.eventStore.Append(ctx, keys, version.CheckExact(0), suiteEvents(keys, 1, value)...)

			mx.Lock()
			defer mx.Unlock()

			var conflictErr version.ConflictError

			switch {
			case err == nil:
				successes++
			case errors.As(err, &conflictErr):
				conflicts++
			default:
				failures = append(failures, fmt.Errorf("writer %d: %w", value, err))
			}
		}(i)
	}

	wg.Wait()

	ss.Empty(failures)
	ss.Equal(1, successes)
	ss.Equal(writers-1, conflicts)
	ss.Len(ss.stream(ctx, keys, version.SelectFromBeginning), 1)
}
