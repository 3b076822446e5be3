package event

import (
	"context"
	"sync"

	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/version"
)

// TrackingStore is an Event Store wrapper to track the Events
// committed to the inner Event Store.
//
// Useful for tests assertion.
type TrackingStore struct {
	Appender

	mx       sync.RWMutex
	recorded []Event
	appends  int
}

// NewTrackingStore wraps an Event Store to capture events that get
// appended to it.
func NewTrackingStore(appender Appender) *TrackingStore {
	return &TrackingStore{Appender: appender}
}

// Recorded returns the list of Events that have been appended
// to the Event Store, in append order.
func (es *TrackingStore) Recorded() []Event {
	es.mx.RLock()
	defer es.mx.RUnlock()

	recorded := make([]Event, len(es.recorded))
	copy(recorded, es.recorded)

	return recorded
}

// Appends returns the number of Append calls forwarded to the inner Event Store,
// successful or not.
func (es *TrackingStore) Appends() int {
	es.mx.RLock()
	defer es.mx.RUnlock()

	return es.appends
}

// Append forwards the call to the wrapped Event Store instance and,
// if the operation concludes successfully, records these events internally.
//
// The recorded events can be accessed by calling Recorded().
func (es *TrackingStore) Append(
	ctx context.Context,
	keys partition.Keys,
	expected version.Check,
	events ...Event,
) (version.Version, error) {
	es.mx.Lock()
	defer es.mx.Unlock()

	es.appends++

	v, err := es.Appender.Append(ctx, keys, expected, events...)
	if err != nil {
		return v, err
	}

	es.recorded = append(es.recorded, events...)

	return v, nil
}
