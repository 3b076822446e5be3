package partition_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/eventcore/partition"
)

func TestGenerate(t *testing.T) {
	t.Run("uses defaults when nothing is specified", func(t *testing.T) {
		keys := partition.Generate("")

		assert.NotEqual(t, uuid.Nil, keys.AggregateID)
		assert.Equal(t, partition.DefaultGroup, keys.Group)
		assert.Equal(t, partition.DefaultRootPartitionKey, keys.RootPartitionKey)
		assert.NoError(t, keys.Validate())
	})

	t.Run("generates a fresh id every time", func(t *testing.T) {
		assert.NotEqual(t, partition.Generate("Branch"), partition.Generate("Branch"))
	})

	t.Run("honors the root partition key option", func(t *testing.T) {
		keys := partition.Generate("Branch", partition.WithRootPartitionKey("tenant-1"))

		assert.Equal(t, "Branch", keys.Group)
		assert.Equal(t, "tenant-1", keys.RootPartitionKey)
	})
}

func TestExisting(t *testing.T) {
	id := uuid.New()

	keys := partition.Existing(id, "Branch")
	assert.Equal(t, partition.Keys{
		AggregateID:      id,
		Group:            "Branch",
		RootPartitionKey: partition.DefaultRootPartitionKey,
	}, keys)

	// Structural equality.
	assert.True(t, keys == partition.Existing(id, "Branch"))
	assert.False(t, keys == partition.Existing(id, "User"))
	assert.Equal(t, "default/Branch/"+id.String(), keys.String())
}

func TestKeys_Validate(t *testing.T) {
	err := partition.Keys{}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, partition.ErrInvalidKeys)
	assert.Contains(t, err.Error(), "aggregate id is nil")
	assert.Contains(t, err.Error(), "group is empty")
	assert.Contains(t, err.Error(), "root partition key is empty")

	keys := partition.Keys{AggregateID: uuid.New()}.WithDefaults("User")
	assert.NoError(t, keys.Validate())
	assert.Equal(t, "User", keys.Group)
}
