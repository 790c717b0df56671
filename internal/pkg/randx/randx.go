/*
Package randx provides identifier generation for rooms, messages, and connections.

Room identifiers are deterministic (derived from the participant pair) so that
room creation is idempotent; message and connection identifiers are random UUIDs.
*/
package randx

import (
	"github.com/google/uuid"
)

// RoomIDSeparator joins the two sorted participant identities into a room id.
const RoomIDSeparator = "_"

// Participants returns the pair in the order RoomID joins them. Callers
// needing the individual participants of a room must carry the pair rather
// than splitting the id: identities are opaque and may themselves contain
// the separator.
func Participants(identityA, identityB string) (string, string) {
	if identityA > identityB {
		return identityB, identityA
	}
	return identityA, identityB
}

// RoomID derives the deterministic room identifier for a pair of identities.
// The identities are sorted before joining, so RoomID(a, b) == RoomID(b, a).
func RoomID(identityA, identityB string) string {
	first, second := Participants(identityA, identityB)
	return first + RoomIDSeparator + second
}

// MessageID generates a UUID v4 string identifying a message.
func MessageID() string {
	return uuid.New().String()
}

// ConnectionID generates a UUID v4 string identifying one live connection.
func ConnectionID() string {
	return uuid.New().String()
}
