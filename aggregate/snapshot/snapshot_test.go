package snapshot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/eventcore/aggregate/snapshot"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/version"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewInMemoryStore[string]()
	keys := partition.Generate("counter")

	_, err := store.Get(ctx, keys, "Counter")
	require.ErrorIs(t, err, snapshot.ErrNotFound)

	second := snapshot.Snapshot[string]{Projector: "Counter", ProjectorVersion: "1", Version: 2, State: "two"}
	first := snapshot.Snapshot[string]{Projector: "Counter", ProjectorVersion: "1", Version: 1, State: "one"}

	require.NoError(t, store.Record(ctx, keys, second))
	require.NoError(t, store.Record(ctx, keys, first))

	snap, err := store.Get(ctx, keys, "Counter")
	require.NoError(t, err)
	assert.Equal(t, second, snap, "older snapshots do not overwrite newer ones")
	assert.True(t, snap.Matches("Counter", "1"))
	assert.False(t, snap.Matches("Counter", "2"))

	// A new projector revision always replaces the previous one.
	revised := snapshot.Snapshot[string]{Projector: "Counter", ProjectorVersion: "2", Version: 1, State: "uno"}
	require.NoError(t, store.Record(ctx, keys, revised))

	snap, err = store.Get(ctx, keys, "Counter")
	require.NoError(t, err)
	assert.Equal(t, revised, snap)

	_, err = store.Get(ctx, keys, "Another")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
	assert.Equal(t, 1, store.Len())

	data, err := store.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), keys.String()+"#Counter")
}

func TestPolicies(t *testing.T) {
	testCases := []struct {
		name     string
		policy   snapshot.Policy
		last     version.Version
		current  version.Version
		expected bool
	}{
		{"never", snapshot.NeverPolicy{}, 0, 10, false},
		{"always, ahead", snapshot.AlwaysPolicy{}, 3, 4, true},
		{"always, same version", snapshot.AlwaysPolicy{}, 4, 4, false},
		{"every 5, not enough", snapshot.EveryNVersionsPolicy(5), 5, 9, false},
		{"every 5, enough", snapshot.EveryNVersionsPolicy(5), 5, 10, true},
		{"every 5, skipped past", snapshot.EveryNVersionsPolicy(5), 0, 7, true},
		{"func", snapshot.PolicyFunc(func(_, current version.Version) bool { return current == 2 }), 0, 2, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.policy.ShouldRecord(tc.last, tc.current))
		})
	}
}
