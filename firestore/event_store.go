// Package firestore contains the event.Store implementation backed by
// Google Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/sortable"
	"github.com/get-eventually/eventcore/version"
)

const (
	streamsCollection = "EventStreams"
	eventsCollection  = "Events"

	defaultMaxAttempts = 10
)

//nolint:exhaustruct // Only used for interface assertion.
var _ event.Store = EventStore{}

// Option customizes an EventStore.
type Option func(*EventStore)

// WithMaxAttempts sets how many times an append transaction is attempted
// when Firestore aborts it because of contention.
func WithMaxAttempts(n int) Option {
	return func(es *EventStore) { es.maxAttempts = n }
}

// EventStore is an event.Store implementation using Firestore.
//
// Every partition is a document in the "EventStreams" collection, holding
// the last version of the Event Stream, while its Events are documents
// of the "Events" subcollection.
type EventStore struct {
	client      *firestore.Client
	codec       event.Codec
	maxAttempts int
}

// NewEventStore returns a new EventStore using the specified Firestore client,
// and the Codec to encode and decode Event payloads.
func NewEventStore(client *firestore.Client, codec event.Codec, opts ...Option) EventStore {
	es := EventStore{
		client:      client,
		codec:       codec,
		maxAttempts: defaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(&es)
	}

	return es
}

// streamID returns the document id of the partition Event Stream.
//
// Each component is escaped on its own, so the ":" separator
// never appears inside a component, and neither does "/".
func streamID(keys partition.Keys) string {
	return url.QueryEscape(keys.RootPartitionKey) + ":" +
		url.QueryEscape(keys.Group) + ":" +
		keys.AggregateID.String()
}

func (es EventStore) streamDoc(keys partition.Keys) *firestore.DocumentRef {
	return es.client.Collection(streamsCollection).Doc(streamID(keys))
}

func (es EventStore) eventDoc(keys partition.Keys, v version.Version) *firestore.DocumentRef {
	return es.streamDoc(keys).Collection(eventsCollection).Doc(fmt.Sprintf("%020d", v))
}

// Stream implements the event.Streamer interface.
func (es EventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	keys partition.Keys,
	selector version.Selector,
) error {
	defer close(stream)

	iter := es.streamDoc(keys).Collection(eventsCollection).
		Where("version", ">=", int64(selector.From)).
		OrderBy("version", firestore.Asc).
		Documents(ctx)

	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("firestore.EventStore: failed while reading iterator, %w", err)
		}

		evt, err := es.decode(keys, doc)
		if err != nil {
			return fmt.Errorf("firestore.EventStore: failed to decode document %s, %w", doc.Ref.ID, err)
		}

		select {
		case stream <- evt:
		case <-ctx.Done():
			return fmt.Errorf("firestore.EventStore: context error, %w", ctx.Err())
		}
	}
}

type eventDocument struct {
	Version          int64  `firestore:"version"`
	SortableUniqueID string `firestore:"sortable_unique_id"`
	Type             string `firestore:"type"`
	Payload          []byte `firestore:"payload"`
}

type streamDocument struct {
	RootPartitionKey string `firestore:"root_partition_key"`
	Group            string `firestore:"group"`
	AggregateID      string `firestore:"aggregate_id"`
	LastVersion      int64  `firestore:"last_version"`
}

func (es EventStore) decode(keys partition.Keys, doc *firestore.DocumentSnapshot) (event.Event, error) {
	var data eventDocument
	if err := doc.DataTo(&data); err != nil {
		return event.Event{}, err
	}

	id, err := sortable.Parse(data.SortableUniqueID)
	if err != nil {
		return event.Event{}, err
	}

	payload, err := es.codec.Decode(data.Type, data.Payload)
	if err != nil {
		return event.Event{}, err
	}

	return event.Event{
		Payload:          payload,
		PartitionKeys:    keys,
		SortableUniqueID: id,
		Version:          version.Version(data.Version),
	}, nil
}

func (es EventStore) currentVersion(tx *firestore.Transaction, keys partition.Keys) (version.Version, error) {
	doc, err := tx.Get(es.streamDoc(keys))
	if status.Code(err) == codes.NotFound {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to get event stream, %w", err)
	}

	var data streamDocument
	if err := doc.DataTo(&data); err != nil {
		return 0, fmt.Errorf("failed to read event stream, %w", err)
	}

	return version.Version(data.LastVersion), nil
}

// Append implements the event.Appender interface.
//
// The version check and the writes happen in the same Firestore transaction.
func (es EventStore) Append(
	ctx context.Context,
	keys partition.Keys,
	expected version.Check,
	events ...event.Event,
) (version.Version, error) {
	if err := event.ValidateBatch(keys, events...); err != nil {
		return 0, fmt.Errorf("firestore.EventStore: failed to append events, %w", err)
	}

	documents := make([]eventDocument, 0, len(events))

	for _, evt := range events {
		name, data, err := es.codec.Encode(evt.Payload)
		if err != nil {
			return 0, fmt.Errorf("firestore.EventStore: failed to encode event at version %d, %w", evt.Version, err)
		}

		documents = append(documents, eventDocument{
			Version:          int64(evt.Version),
			SortableUniqueID: evt.SortableUniqueID.String(),
			Type:             name,
			Payload:          data,
		})
	}

	var newVersion version.Version

	err := es.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		current, err := es.currentVersion(tx, keys)
		if err != nil {
			return err
		}

		newVersion = current
		if len(events) == 0 {
			return nil
		}

		if err := version.Verify(expected, current, events[0].Version); err != nil {
			return err
		}

		newVersion = events[len(events)-1].Version

		if err := tx.Set(es.streamDoc(keys), streamDocument{
			RootPartitionKey: keys.RootPartitionKey,
			Group:            keys.Group,
			AggregateID:      keys.AggregateID.String(),
			LastVersion:      int64(newVersion),
		}); err != nil {
			return fmt.Errorf("failed to update event stream, %w", err)
		}

		for _, doc := range documents {
			if err := tx.Create(es.eventDoc(keys, version.Version(doc.Version)), doc); err != nil {
				return fmt.Errorf("failed to append event at version %d, %w", doc.Version, err)
			}
		}

		return nil
	}, firestore.MaxAttempts(es.maxAttempts))

	if status.Code(err) == codes.AlreadyExists {
		err = version.ConflictError{Expected: events[0].Version - 1, Actual: newVersion}
	}

	if err != nil {
		return 0, fmt.Errorf("firestore.EventStore: failed to append events, %w", err)
	}

	return newVersion, nil
}
