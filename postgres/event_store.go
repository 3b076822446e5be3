// Package postgres contains the event.Store implementation targeting
// PostgreSQL databases, through the pgx driver.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/postgres/internal"
	"github.com/get-eventually/eventcore/sortable"
	"github.com/get-eventually/eventcore/version"
)

var _ event.Store = EventStore{}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EventStore is an event.Store implementation targeted to PostgreSQL databases.
//
// The implementation uses "event_streams" and "events" as its
// operational tables, created by RunMigrations. Appends are transactional.
type EventStore struct {
	pool  *pgxpool.Pool
	codec event.Codec
}

// NewEventStore returns a new EventStore using the provided connection pool,
// and the Codec to encode and decode Event payloads.
func NewEventStore(pool *pgxpool.Pool, codec event.Codec) EventStore {
	return EventStore{
		pool:  pool,
		codec: codec,
	}
}

// Stream implements the event.Streamer interface.
func (es EventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	keys partition.Keys,
	selector version.Selector,
) error {
	defer close(stream)

	rows, err := es.pool.Query(
		ctx,
		`SELECT version, sortable_unique_id, type, payload FROM events
		WHERE root_partition_key = $1 AND group_name = $2 AND aggregate_id = $3::uuid AND version >= $4
		ORDER BY version`,
		keys.RootPartitionKey, keys.Group, keys.AggregateID.String(), int64(selector.From),
	)
	if err != nil {
		return fmt.Errorf("postgres.EventStore: failed to query events table, %w", err)
	}

	defer rows.Close()

	for rows.Next() {
		var (
			v        int64
			rawID    string
			typeName string
			data     []byte
		)

		if err := rows.Scan(&v, &rawID, &typeName, &data); err != nil {
			return fmt.Errorf("postgres.EventStore: failed to scan next row, %w", err)
		}

		id, err := sortable.Parse(rawID)
		if err != nil {
			return fmt.Errorf("postgres.EventStore: invalid sortable unique id at version %d, %w", v, err)
		}

		payload, err := es.codec.Decode(typeName, data)
		if err != nil {
			return fmt.Errorf("postgres.EventStore: failed to decode event at version %d, %w", v, err)
		}

		evt := event.Event{
			Payload:          payload,
			PartitionKeys:    keys,
			SortableUniqueID: id,
			Version:          version.Version(v),
		}

		select {
		case stream <- evt:
		case <-ctx.Done():
			return fmt.Errorf("postgres.EventStore: context error, %w", ctx.Err())
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres.EventStore: failed to read events, %w", err)
	}

	return nil
}

func currentVersion(ctx context.Context, db queryRower, keys partition.Keys, forUpdate bool) (version.Version, error) {
	query := `SELECT version FROM event_streams
		WHERE root_partition_key = $1 AND group_name = $2 AND aggregate_id = $3::uuid`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var v int64

	err := db.QueryRow(ctx, query, keys.RootPartitionKey, keys.Group, keys.AggregateID.String()).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to read event stream version, %w", err)
	}

	return version.Version(v), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Append implements the event.Appender interface.
//
// The Event Stream row is locked for the duration of the transaction, so that
// concurrent appends to the same partition are serialized. Two concurrent
// appends creating the same Event Stream are caught by the table primary key,
// and reported as version.ConflictError.
func (es EventStore) Append(
	ctx context.Context,
	keys partition.Keys,
	expected version.Check,
	events ...event.Event,
) (version.Version, error) {
	if err := event.ValidateBatch(keys, events...); err != nil {
		return 0, fmt.Errorf("postgres.EventStore: failed to append events, %w", err)
	}

	if len(events) == 0 {
		v, err := currentVersion(ctx, es.pool, keys, false)
		if err != nil {
			return 0, fmt.Errorf("postgres.EventStore: %w", err)
		}

		return v, nil
	}

	newVersion := events[len(events)-1].Version

	err := internal.RunTransaction(ctx, es.pool, internal.AppendTxOptions, func(ctx context.Context, tx pgx.Tx) error {
		current, err := currentVersion(ctx, tx, keys, true)
		if err != nil {
			return err
		}

		if err := version.Verify(expected, current, events[0].Version); err != nil {
			return err
		}

		if err := es.updateStream(ctx, tx, keys, current, newVersion); err != nil {
			return err
		}

		return es.insertEvents(ctx, tx, events...)
	})

	if isUniqueViolation(err) {
		actual, verr := currentVersion(ctx, es.pool, keys, false)
		if verr != nil {
			return 0, fmt.Errorf("postgres.EventStore: %w (caused by: %w)", verr, err)
		}

		err = version.ConflictError{Expected: events[0].Version - 1, Actual: actual}
	}

	if err != nil {
		return 0, fmt.Errorf("postgres.EventStore: failed to append events, %w", err)
	}

	return newVersion, nil
}

func (es EventStore) updateStream(
	ctx context.Context,
	tx pgx.Tx,
	keys partition.Keys,
	current, next version.Version,
) error {
	if current == 0 {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO event_streams (root_partition_key, group_name, aggregate_id, version)
			VALUES ($1, $2, $3::uuid, $4)`,
			keys.RootPartitionKey, keys.Group, keys.AggregateID.String(), int64(next),
		)
		if err != nil {
			return fmt.Errorf("failed to create event stream, %w", err)
		}

		return nil
	}

	_, err := tx.Exec(
		ctx,
		`UPDATE event_streams SET version = $4
		WHERE root_partition_key = $1 AND group_name = $2 AND aggregate_id = $3::uuid`,
		keys.RootPartitionKey, keys.Group, keys.AggregateID.String(), int64(next),
	)
	if err != nil {
		return fmt.Errorf("failed to update event stream version, %w", err)
	}

	return nil
}

func (es EventStore) insertEvents(ctx context.Context, tx pgx.Tx, events ...event.Event) error {
	batch := new(pgx.Batch)

	for _, evt := range events {
		name, data, err := es.codec.Encode(evt.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode event at version %d, %w", evt.Version, err)
		}

		batch.Queue(
			`INSERT INTO events
			(root_partition_key, group_name, aggregate_id, version, sortable_unique_id, type, payload)
			VALUES ($1, $2, $3::uuid, $4, $5, $6, $7::jsonb)`,
			evt.PartitionKeys.RootPartitionKey,
			evt.PartitionKeys.Group,
			evt.PartitionKeys.AggregateID.String(),
			int64(evt.Version),
			evt.SortableUniqueID.String(),
			name,
			string(data),
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert events, %w", err)
	}

	return nil
}
