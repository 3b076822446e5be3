package firestore

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/get-eventually/eventcore/partition"
)

func TestStreamID(t *testing.T) {
	id := uuid.MustParse("0190f1a6-6c5e-7a8b-9c0d-1e2f3a4b5c6d")

	t.Run("components are kept apart", func(t *testing.T) {
		first := partition.Keys{AggregateID: id, Group: "c", RootPartitionKey: "a/b"}
		second := partition.Keys{AggregateID: id, Group: "b/c", RootPartitionKey: "a"}
		third := partition.Keys{AggregateID: id, Group: "c", RootPartitionKey: "a:b"}
		fourth := partition.Keys{AggregateID: id, Group: "b:c", RootPartitionKey: "a"}

		ids := map[string]partition.Keys{}
		for _, keys := range []partition.Keys{first, second, third, fourth} {
			ids[streamID(keys)] = keys
		}

		assert.Len(t, ids, 4)
	})

	t.Run("ids are valid document ids", func(t *testing.T) {
		keys := partition.Keys{AggregateID: id, Group: "Branch/v1", RootPartitionKey: "tenant/eu"}

		assert.False(t, strings.Contains(streamID(keys), "/"))
		assert.Equal(t, "tenant%2Feu:Branch%2Fv1:"+id.String(), streamID(keys))
	})

	t.Run("plain keys are readable", func(t *testing.T) {
		keys := partition.Existing(id, "Branch")
		assert.Equal(t, "default:Branch:"+id.String(), streamID(keys))
	})
}
