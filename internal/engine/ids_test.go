package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("")
	assert.Equal(t, "view1", g.Next())
	assert.Equal(t, "view2", g.Next())

	other := NewSequentialIDs("menu")
	assert.Equal(t, "menu1", other.Next())
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := g.Next()
		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
		require.False(t, seen[id], "id %s generated twice", id)
		seen[id] = true
	}
}

func TestNewIDGenerator(t *testing.T) {
	for _, scheme := range []string{"", "sequential", " Sequential "} {
		g, err := NewIDGenerator(scheme)
		require.NoError(t, err, scheme)
		assert.Equal(t, "view1", g.Next(), scheme)
	}

	g, err := NewIDGenerator("uuid")
	require.NoError(t, err)
	assert.IsType(t, UUIDv7Generator{}, g)

	_, err = NewIDGenerator("random")
	assert.ErrorContains(t, err, `unknown id scheme "random"`)
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Next())
	assert.Equal(t, "b", g.Next())
	assert.Panics(t, func() { g.Next() })
}
