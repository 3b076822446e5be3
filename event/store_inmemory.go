package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/version"
)

// Interface implementation assertion.
var _ Store = new(InMemoryStore)

// InMemoryStore is a thread-safe, in-memory event.Store implementation.
type InMemoryStore struct {
	mx     sync.RWMutex
	events map[partition.Keys][]Event
}

// NewInMemoryStore creates a new event.InMemoryStore instance.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		mx:     sync.RWMutex{},
		events: make(map[partition.Keys][]Event),
	}
}

func contextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("event.InMemoryStore: context error, %w", err)
	}

	return nil
}

// Stream streams committed events in the Event Store onto the provided Event Stream,
// from the version specified in the version.Selector.
//
// Note: this call is synchronous, and will return when all the Events
// have been successfully written to the provided Event Stream, or when
// the context has been canceled.
//
// This method fails only when the context is canceled.
func (es *InMemoryStore) Stream(
	ctx context.Context,
	stream StreamWrite,
	keys partition.Keys,
	selector version.Selector,
) error {
	defer close(stream)

	es.mx.RLock()
	events := make([]Event, len(es.events[keys]))
	copy(events, es.events[keys])
	es.mx.RUnlock()

	for _, evt := range events {
		if !selector.Includes(evt.Version) {
			continue
		}

		select {
		case stream <- evt:
		case <-ctx.Done():
			return contextErr(ctx)
		}
	}

	return nil
}

// Append inserts the specified Domain Events into the Event Stream of the
// partition, returning the new version of the Event Stream.
//
// `version.CheckExact` can be specified to enable an Optimistic Concurrency check
// on append, by using the expected version of the Event Stream prior
// to appending the new Events.
//
// An instance of `version.ConflictError` will be returned if the optimistic locking
// version check fails against the current version of the Event Stream.
func (es *InMemoryStore) Append(
	ctx context.Context,
	keys partition.Keys,
	expected version.Check,
	events ...Event,
) (version.Version, error) {
	if err := contextErr(ctx); err != nil {
		return 0, err
	}

	if err := ValidateBatch(keys, events...); err != nil {
		return 0, fmt.Errorf("event.InMemoryStore: failed to append events, %w", err)
	}

	es.mx.Lock()
	defer es.mx.Unlock()

	current := version.Version(len(es.events[keys]))
	if len(events) == 0 {
		return current, nil
	}

	if err := version.Verify(expected, current, events[0].Version); err != nil {
		return 0, fmt.Errorf("event.InMemoryStore: failed to append events, %w", err)
	}

	es.events[keys] = append(es.events[keys], events...)

	return version.Version(len(es.events[keys])), nil
}
