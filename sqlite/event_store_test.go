package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/sortable"
	"github.com/get-eventually/eventcore/sqlite"
	"github.com/get-eventually/eventcore/version"
)

func TestEventStore(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "events.db"), event.NewSuiteRegistry())
	require.NoError(t, err)

	defer func() {
		assert.NoError(t, store.Close())
	}()

	suite.Run(t, event.NewStoreSuite(func() event.Store { return store }))
}

func TestOpen(t *testing.T) {
	t.Run("an empty path is refused", func(t *testing.T) {
		_, err := sqlite.Open("  ", event.NewSuiteRegistry())
		assert.Error(t, err)
	})

	t.Run("events survive reopening the database", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "events.db")
		keys := partition.Generate("reopen")

		store, err := sqlite.Open(path, event.NewSuiteRegistry())
		require.NoError(t, err)

		evt := event.Event{
			Payload:          event.SuitePayload{Value: 42},
			PartitionKeys:    keys,
			SortableUniqueID: sortable.CurrentFromUTC(),
			Version:          1,
		}

		v, err := store.Append(ctx, keys, version.CheckExact(0), evt)
		require.NoError(t, err)
		assert.Equal(t, version.Version(1), v)
		require.NoError(t, store.Close())

		store, err = sqlite.Open(path, event.NewSuiteRegistry())
		require.NoError(t, err)

		defer store.Close()

		events, err := event.StreamToSlice(ctx, func(ctx context.Context, stream event.StreamWrite) error {
			return store.Stream(ctx, stream, keys, version.SelectFromBeginning)
		})
		require.NoError(t, err)
		assert.Equal(t, []event.Event{evt}, events)
	})
}
