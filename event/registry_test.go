package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/sortable"
)

type itemAdded struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (itemAdded) Name() string { return "ItemAdded" }

type impostor struct{}

func (impostor) Name() string { return "ItemAdded" }

type unnamed struct{}

func (unnamed) Name() string { return "" }

type itemRemoved struct{}

func (itemRemoved) Name() string { return "ItemRemoved" }

func TestRegistry_GenerateTypedEvent(t *testing.T) {
	registry := event.NewRegistry()
	require.NoError(t, event.Register[itemAdded](registry))

	keys := partition.Generate("cart")
	id := sortable.CurrentFromUTC()

	t.Run("registered payloads are wrapped into events", func(t *testing.T) {
		evt, err := registry.GenerateTypedEvent(itemAdded{SKU: "a", Quantity: 1}, keys, id, 3)
		require.NoError(t, err)

		assert.Equal(t, event.Event{
			Payload:          itemAdded{SKU: "a", Quantity: 1},
			PartitionKeys:    keys,
			SortableUniqueID: id,
			Version:          3,
		}, evt)
		assert.Equal(t, "ItemAdded", evt.Name())
	})

	t.Run("payloads sharing a name with a registered type are refused", func(t *testing.T) {
		_, err := registry.GenerateTypedEvent(impostor{}, keys, id, 1)

		var unregistered event.UnregisteredTypeError

		require.ErrorAs(t, err, &unregistered)
		assert.Equal(t, "ItemAdded", unregistered.Name)
	})

	t.Run("an empty registry refuses everything", func(t *testing.T) {
		_, err := event.NewRegistry().GenerateTypedEvent(itemAdded{}, keys, id, 1)
		assert.ErrorAs(t, err, new(event.UnregisteredTypeError))

		_, err = event.NewRegistry().GenerateTypedEvent(nil, keys, id, 1)
		assert.ErrorAs(t, err, new(event.UnregisteredTypeError))
	})
}

func TestRegister(t *testing.T) {
	registry := event.NewRegistry()

	require.NoError(t, event.Register[itemAdded](registry))
	require.NoError(t, event.Register[itemAdded](registry), "registering twice is a no-op")

	assert.Error(t, event.Register[impostor](registry))
	assert.Error(t, event.Register[unnamed](registry))
	assert.Panics(t, func() { event.MustRegister[impostor](registry) })

	assert.NotPanics(t, func() {
		assert.Error(t, event.Register[*itemRemoved](registry), "nil pointer with value receiver Name")
	})

	assert.Equal(t, []string{"ItemAdded"}, registry.Names())
}

func TestRegistry_Codec(t *testing.T) {
	registry := event.NewRegistry()
	event.MustRegister[itemAdded](registry)

	name, data, err := registry.Encode(itemAdded{SKU: "b", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "ItemAdded", name)
	assert.JSONEq(t, `{"sku":"b","quantity":2}`, string(data))

	payload, err := registry.Decode(name, data)
	require.NoError(t, err)
	assert.Equal(t, itemAdded{SKU: "b", Quantity: 2}, payload)

	_, _, err = registry.Encode(impostor{})
	assert.ErrorAs(t, err, new(event.UnregisteredTypeError))

	_, err = registry.Decode("Unknown", data)
	assert.ErrorAs(t, err, new(event.UnregisteredTypeError))

	_, err = registry.Decode(name, []byte("not json"))
	assert.Error(t, err)
}
