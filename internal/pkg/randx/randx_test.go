package randx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, RoomID("alice", "bob"), RoomID("bob", "alice"))
	assert.Equal(t, "alice_bob", RoomID("alice", "bob"))
	assert.Equal(t, "alice_bob", RoomID("bob", "alice"))
}

func TestParticipantsSortsThePair(t *testing.T) {
	first, second := Participants("bob", "alice")
	assert.Equal(t, "alice", first)
	assert.Equal(t, "bob", second)
}

func TestSeparatorInsideIdentitiesIsPreserved(t *testing.T) {
	// Identities are opaque, so the pair must survive even when one of them
	// contains the id separator itself.
	first, second := Participants("a_b", "c")
	assert.Equal(t, "a_b", first)
	assert.Equal(t, "c", second)

	assert.Equal(t, RoomID("a_b", "c"), RoomID("c", "a_b"))
}

func TestMessageIDsAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := MessageID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
