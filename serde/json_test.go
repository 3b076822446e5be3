package serde_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/eventcore/serde"
)

type named interface{ Name() string }

type created struct {
	Label   string `json:"name"`
	Country string `json:"country"`
}

func (c created) Name() string { return c.Label }

func TestJSON(t *testing.T) {
	src := created{Label: "branch1", Country: "japan"}

	data, err := serde.NewJSONSerializer[created]().Serialize(src)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"branch1","country":"japan"}`, string(data))

	dst, err := serde.NewJSONDeserializer[created]().Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, src, dst)

	_, err = serde.NewJSONDeserializer[created]().Deserialize([]byte("{"))
	assert.Error(t, err)
}

func TestUpcast(t *testing.T) {
	wide := serde.Upcast[named](
		serde.NewJSONDeserializer[created](),
		func(c created) named { return c },
	)

	result, err := wide.Deserialize([]byte(`{"name":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "x", result.Name())
	assert.IsType(t, created{}, result)
}
