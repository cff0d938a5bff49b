package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	data, err := JSON{}.Marshal(payload{Name: "height", Count: 3})
	require.NoError(t, err)

	var got payload
	require.NoError(t, JSON{}.Unmarshal(data, &got))
	assert.Equal(t, payload{Name: "height", Count: 3}, got)

	assert.Equal(t, "json", JSON{}.Name())
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestMustMarshal(t *testing.T) {
	assert.NotPanics(t, func() { MustMarshal(nil, map[string]int{"a": 1}) })
	assert.Panics(t, func() { MustMarshal(JSON{}, func() {}) })
}
