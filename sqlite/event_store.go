// Package sqlite contains an event.Store implementation backed by
// an embedded SQLite database, using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/sortable"
	"github.com/get-eventually/eventcore/version"
)

//go:embed schema.sql
var schema string

var _ event.Store = new(EventStore)

// EventStore is an event.Store implementation persisting Events
// in a SQLite database file.
type EventStore struct {
	db    *sql.DB
	codec event.Codec
	now   func() time.Time
}

// Open opens, or creates, the SQLite database at path and applies
// the Event Store schema to it.
//
// Write transactions take the database lock immediately, so that
// concurrent appends wait for each other instead of failing.
func Open(path string, codec event.Codec) (*EventStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite.Open: database path is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: failed to open database, %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.Open: failed to apply schema, %w", err)
	}

	return &EventStore{
		db:    db,
		codec: codec,
		now:   time.Now,
	}, nil
}

// Close closes the underlying database handle.
func (es *EventStore) Close() error {
	if err := es.db.Close(); err != nil {
		return fmt.Errorf("sqlite.EventStore: failed to close database, %w", err)
	}

	return nil
}

// Stream implements the event.Streamer interface.
func (es *EventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	keys partition.Keys,
	selector version.Selector,
) error {
	defer close(stream)

	rows, err := es.db.QueryContext(
		ctx,
		`SELECT version, sortable_unique_id, type, payload FROM events
		WHERE root_partition_key = ? AND group_name = ? AND aggregate_id = ? AND version >= ?
		ORDER BY version`,
		keys.RootPartitionKey, keys.Group, keys.AggregateID.String(), int64(selector.From),
	)
	if err != nil {
		return fmt.Errorf("sqlite.EventStore: failed to query events, %w", err)
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
			return fmt.Errorf("sqlite.EventStore: failed to scan next row, %w", err)
		}

		id, err := sortable.Parse(rawID)
		if err != nil {
			return fmt.Errorf("sqlite.EventStore: invalid sortable unique id at version %d, %w", v, err)
		}

		payload, err := es.codec.Decode(typeName, data)
		if err != nil {
			return fmt.Errorf("sqlite.EventStore: failed to decode event at version %d, %w", v, err)
		}

		select {
		case stream <- event.Event{
			Payload:          payload,
			PartitionKeys:    keys,
			SortableUniqueID: id,
			Version:          version.Version(v),
		}:
		case <-ctx.Done():
			return fmt.Errorf("sqlite.EventStore: context error, %w", ctx.Err())
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite.EventStore: failed to read events, %w", err)
	}

	return nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	default:
		return false
	}
}

// Append implements the event.Appender interface.
func (es *EventStore) Append(
	ctx context.Context,
	keys partition.Keys,
	expected version.Check,
	events ...event.Event,
) (version.Version, error) {
	if err := event.ValidateBatch(keys, events...); err != nil {
		return 0, fmt.Errorf("sqlite.EventStore: failed to append events, %w", err)
	}

	tx, err := es.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite.EventStore: failed to begin transaction, %w", err)
	}

	defer func() {
		// NOTE: no effect if the transaction has been committed.
		_ = tx.Rollback()
	}()

	var current int64

	err = tx.QueryRowContext(
		ctx,
		`SELECT version FROM event_streams
		WHERE root_partition_key = ? AND group_name = ? AND aggregate_id = ?`,
		keys.RootPartitionKey, keys.Group, keys.AggregateID.String(),
	).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("sqlite.EventStore: failed to read event stream version, %w", err)
	}

	if len(events) == 0 {
		return version.Version(current), nil
	}

	if err := version.Verify(expected, version.Version(current), events[0].Version); err != nil {
		return 0, fmt.Errorf("sqlite.EventStore: failed to append events, %w", err)
	}

	newVersion := events[len(events)-1].Version

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO event_streams (root_partition_key, group_name, aggregate_id, version)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (root_partition_key, group_name, aggregate_id) DO UPDATE SET version = excluded.version`,
		keys.RootPartitionKey, keys.Group, keys.AggregateID.String(), int64(newVersion),
	); err != nil {
		return 0, fmt.Errorf("sqlite.EventStore: failed to update event stream version, %w", err)
	}

	recordedAt := es.now().UTC().UnixMilli()

	for _, evt := range events {
		name, data, err := es.codec.Encode(evt.Payload)
		if err != nil {
			return 0, fmt.Errorf("sqlite.EventStore: failed to encode event at version %d, %w", evt.Version, err)
		}

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO events
			(root_partition_key, group_name, aggregate_id, version, sortable_unique_id, type, payload, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			keys.RootPartitionKey, keys.Group, keys.AggregateID.String(), int64(evt.Version),
			evt.SortableUniqueID.String(), name, data, recordedAt,
		)
		if isConstraintViolation(err) {
			return 0, fmt.Errorf("sqlite.EventStore: failed to append events, %w", version.ConflictError{
				Expected: events[0].Version - 1,
				Actual:   version.Version(current),
			})
		}

		if err != nil {
			return 0, fmt.Errorf("sqlite.EventStore: failed to insert event at version %d, %w", evt.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite.EventStore: failed to commit transaction, %w", err)
	}

	return newVersion, nil
}
