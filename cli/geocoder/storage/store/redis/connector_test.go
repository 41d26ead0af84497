package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload string

func (p payload) ToBytes() ([]byte, error) {
	return []byte(p), nil
}

func TestConnector_List(t *testing.T) {
	server := miniredis.RunT(t)

	c := Connector{}
	require.NoError(t, c.Init(map[string]string{"addr": server.Addr(), "key": "geocode:results"}))
	defer c.Close()

	require.NoError(t, c.Save(payload("first")))
	require.NoError(t, c.Save(payload("second")))

	items, err := server.List("geocode:results")
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, items)
}

func TestConnector_InvalidConfig(t *testing.T) {
	server := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  map[string]string
	}{
		{"nil config", nil},
		{"missing key", map[string]string{"addr": server.Addr()}},
		{"bad db", map[string]string{"addr": server.Addr(), "key": "k", "db": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Connector{}
			assert.Error(t, c.Init(tt.cfg))
		})
	}
}
