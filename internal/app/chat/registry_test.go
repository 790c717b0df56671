package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySupersede(t *testing.T) {
	registry := NewRegistry()

	first := &Client{identity: "u1", connID: "c1"}
	second := &Client{identity: "u1", connID: "c2"}

	require.Nil(t, registry.Register("u1", first))

	prev := registry.Register("u1", second)
	require.Same(t, first, prev)

	current, ok := registry.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, second, current)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryRegisterSameClientIsNoop(t *testing.T) {
	registry := NewRegistry()
	client := &Client{identity: "u1", connID: "c1"}

	require.Nil(t, registry.Register("u1", client))
	require.Nil(t, registry.Register("u1", client))
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryStaleUnregisterLeavesNewerEntry(t *testing.T) {
	registry := NewRegistry()

	first := &Client{identity: "u1", connID: "c1"}
	second := &Client{identity: "u1", connID: "c2"}

	registry.Register("u1", first)
	registry.Register("u1", second)

	// The superseded connection disconnects late; the newer entry survives.
	require.False(t, registry.UnregisterIfCurrent("u1", first))

	current, ok := registry.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, second, current)

	require.True(t, registry.UnregisterIfCurrent("u1", second))
	_, ok = registry.Lookup("u1")
	assert.False(t, ok)
}

func TestRegistrySnapshotSorted(t *testing.T) {
	registry := NewRegistry()

	for _, id := range []string{"zoe", "adam", "mia"} {
		registry.Register(id, &Client{identity: id})
	}

	assert.Equal(t, []string{"adam", "mia", "zoe"}, registry.Snapshot())
}

func TestSubscriptionsDropClient(t *testing.T) {
	subs := newSubscriptions()

	a := &Client{identity: "a"}
	b := &Client{identity: "b"}

	subs.add("room1", a)
	subs.add("room1", b)
	subs.add("room2", a)

	require.Len(t, subs.subscribers("room1"), 2)
	require.ElementsMatch(t, []string{"room1", "room2"}, subs.roomsOf(a))

	subs.dropClient(a)

	assert.Len(t, subs.subscribers("room1"), 1)
	assert.Empty(t, subs.subscribers("room2"))
	assert.Empty(t, subs.roomsOf(a))
}
