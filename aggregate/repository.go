package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/get-eventually/eventcore/aggregate/snapshot"
	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/logger"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/version"
)

// Loader loads an Aggregate from a data store.
type Loader interface {
	// Load reconstructs the Aggregate of the partition using the Projector.
	// A partition with no Domain Events yields the Empty Aggregate at version 0.
	Load(ctx context.Context, keys partition.Keys, projector Projector) (Aggregate, error)
}

// Saver saves Domain Events to a data store.
type Saver interface {
	// Save appends the Domain Events to their partition, all or nothing.
	Save(ctx context.Context, events ...event.Event) error
}

// Repository is used to load and save Aggregates.
type Repository interface {
	Loader
	Saver
}

// FusedRepository is a convenience type that can be used to fuse together
// different implementations for the Loader and Saver Repository interfaces.
type FusedRepository struct {
	Loader
	Saver
}

var _ Repository = new(EventSourcedRepository)

// EventSourcedRepository provides an aggregate.Repository interface implementation
// that uses an event.Store to store and load the state of the Aggregate.
type EventSourcedRepository struct {
	eventStore event.Store
	snapshots  snapshot.Store[Aggregate]
	policy     snapshot.Policy
	logger     logger.Logger
	now        func() time.Time
}

// RepositoryOption customizes an EventSourcedRepository.
type RepositoryOption func(*EventSourcedRepository)

// WithSnapshots enables Snapshots on the EventSourcedRepository, using the
// provided store and recording Snapshots after Load when the policy says so.
func WithSnapshots(store snapshot.Store[Aggregate], policy snapshot.Policy) RepositoryOption {
	return func(r *EventSourcedRepository) {
		r.snapshots = store
		r.policy = policy
	}
}

// WithLogger sets the logger.Logger used by the EventSourcedRepository.
func WithLogger(l logger.Logger) RepositoryOption {
	return func(r *EventSourcedRepository) { r.logger = l }
}

// NewEventSourcedRepository returns a new EventSourcedRepository implementation
// to store and load Aggregates using the provided event.Store implementation.
func NewEventSourcedRepository(eventStore event.Store, opts ...RepositoryOption) *EventSourcedRepository {
	r := &EventSourcedRepository{
		eventStore: eventStore,
		policy:     snapshot.NeverPolicy{},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *EventSourcedRepository) startFrom(ctx context.Context, keys partition.Keys, projector Projector) (Aggregate, error) {
	start := EmptyFrom(keys)
	if r.snapshots == nil {
		return start, nil
	}

	snap, err := r.snapshots.Get(ctx, keys, projector.Name())
	if errors.Is(err, snapshot.ErrNotFound) {
		return start, nil
	}

	if err != nil {
		return start, fmt.Errorf("aggregate.EventSourcedRepository: failed to get snapshot, %w", err)
	}

	if !snap.Matches(projector.Name(), projector.Version()) {
		logger.Debug(r.logger, "Snapshot ignored, projector version changed",
			logger.With("partition", keys.String()),
			logger.With("snapshotProjectorVersion", snap.ProjectorVersion),
			logger.With("projectorVersion", projector.Version()),
		)

		return start, nil
	}

	return snap.State, nil
}

func (r *EventSourcedRepository) record(ctx context.Context, start, agg Aggregate, projector Projector) {
	if r.snapshots == nil || !r.policy.ShouldRecord(start.Version, agg.Version) {
		return
	}

	err := r.snapshots.Record(ctx, agg.PartitionKeys, snapshot.Snapshot[Aggregate]{
		Projector:        projector.Name(),
		ProjectorVersion: projector.Version(),
		Version:          agg.Version,
		State:            agg,
		RecordedAt:       r.now(),
	})
	if err != nil {
		logger.Warn(r.logger, "Failed to record snapshot",
			logger.With("partition", agg.PartitionKeys.String()),
			logger.With("version", agg.Version),
			logger.Err(err),
		)
	}
}

// Load reconstructs the Aggregate of the partition, by streaming its Domain Events
// from the Event Store, sorting them by ordering key and folding them
// with the provided Projector.
//
// A partition with no Domain Events yields the Empty Aggregate at version 0.
//
// An error is returned if the partition keys are invalid, or if the underlying
// Event Store fails.
func (r *EventSourcedRepository) Load(ctx context.Context, keys partition.Keys, projector Projector) (Aggregate, error) {
	if err := keys.Validate(); err != nil {
		return Aggregate{}, fmt.Errorf("aggregate.EventSourcedRepository: failed to load aggregate, %w", err)
	}

	start, err := r.startFrom(ctx, keys, projector)
	if err != nil {
		return Aggregate{}, err
	}

	events, err := event.StreamToSlice(ctx, func(ctx context.Context, stream event.StreamWrite) error {
		return r.eventStore.Stream(ctx, stream, keys, version.Selector{From: start.Version.Next()})
	})
	if err != nil {
		return Aggregate{}, fmt.Errorf("aggregate.EventSourcedRepository: failed while reading event from stream, %w", err)
	}

	agg := start.ProjectAll(projector, events...)
	r.record(ctx, start, agg, projector)

	return agg, nil
}

// Save appends the Domain Events to the Event Store, expecting the partition
// to be at the version preceding the first Event.
//
// All the Events must belong to the same partition and have contiguous versions.
// Saving no Events is a no-op.
func (r *EventSourcedRepository) Save(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}

	keys := events[0].PartitionKeys
	if err := event.ValidateBatch(keys, events...); err != nil {
		return fmt.Errorf("aggregate.EventSourcedRepository: failed to commit recorded events, %w", err)
	}

	expected := version.CheckExact(events[0].Version - 1)
	if _, err := r.eventStore.Append(ctx, keys, expected, events...); err != nil {
		return fmt.Errorf("aggregate.EventSourcedRepository: failed to commit recorded events, %w", err)
	}

	return nil
}
