package event

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/version"
)

// Stream represents a stream of Events coming from some Event Store.
type Stream = chan Event

// StreamWrite provides write-only access to an event.Stream object.
type StreamWrite chan<- Event

// StreamRead provides read-only access to an event.Stream object.
type StreamRead <-chan Event

// StreamToSlice synchronously exhausts an Event Stream to an Event slice,
// and returns an error if the Event Stream origin, passed here as a closure,
// fails with an error.
func StreamToSlice(ctx context.Context, f func(ctx context.Context, stream StreamWrite) error) ([]Event, error) {
	ch := make(Stream, 1)
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error { return f(ctx, ch) })

	var events []Event
	for event := range ch {
		events = append(events, event)
	}

	return events, group.Wait()
}

// Streamer is an Event Store trait used to open a specific Event Stream and stream it back
// in the application.
type Streamer interface {
	// Stream sends the Events of the partition identified by keys on the provided
	// StreamWrite channel, in Version order, then closes the channel.
	Stream(ctx context.Context, stream StreamWrite, keys partition.Keys, selector version.Selector) error
}

// Appender is an Event Store trait used to append new Domain Events in the Event Stream.
type Appender interface {
	// Append atomically appends the Events to the partition identified by keys,
	// returning the new version of the Event Stream.
	//
	// Either all the Events are appended, or none of them is.
	Append(ctx context.Context, keys partition.Keys, expected version.Check, events ...Event) (version.Version, error)
}

// Store represents an Event Store, a stateful data source where Domain Events
// can be safely stored, and easily replayed.
type Store interface {
	Appender
	Streamer
}

// FusedStore is a convenience type to fuse
// multiple Event Store interfaces where you might need to extend
// the functionality of the Store only partially.
//
// E.g. You might want to extend the functionality of the Append() method,
// but keep the Streamer methods the same.
type FusedStore struct {
	Appender
	Streamer
}

// ErrInvalidBatch is returned by Event Stores when asked to append
// a batch of Events that does not belong to the target partition.
var ErrInvalidBatch = errors.New("event: invalid batch")

// ValidateBatch checks that every Event in the batch belongs to the
// partition identified by keys, and that versions are contiguous.
func ValidateBatch(keys partition.Keys, events ...Event) error {
	for i, evt := range events {
		if evt.PartitionKeys != keys {
			return fmt.Errorf("%w: event %d belongs to partition %s, expected %s",
				ErrInvalidBatch, i, evt.PartitionKeys, keys)
		}

		if i > 0 && evt.Version != events[i-1].Version.Next() {
			return fmt.Errorf("%w: event %d has version %d, expected %d",
				ErrInvalidBatch, i, evt.Version, events[i-1].Version.Next())
		}
	}

	return nil
}
