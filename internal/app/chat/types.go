/*
Package chat contains the real-time core of the messaging server: the
connection registry, presence tracking, room membership binding, the
message fan-out engine, and the friend-event relay.

This file defines the durable domain entities the core moves around.
*/
package chat

import (
	"time"

	"github.com/aryankinha/chattingAPP/internal/app/user"
)

// RetractedText replaces the body of a message once its sender unsends it.
const RetractedText = "This message was unsent"

// LastMessage is the denormalized snapshot of a room's most recent
// non-retracted message, kept for conversation-list rendering.
type LastMessage struct {
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}

// Room is the durable two-party conversation container. Its identifier is
// the sorted, joined pair of participant identities, so creation is
// idempotent for any pair ordering.
type Room struct {
	// ID is the deterministic room identifier (randx.RoomID of the pair).
	ID string `json:"id"`

	// Participants holds exactly two identities, sorted.
	Participants [2]string `json:"participants"`

	// LastMessage is nil until the first message lands in the room.
	LastMessage *LastMessage `json:"lastMessage"`

	// UnreadCounts maps a participant identity to its unread message count.
	UnreadCounts map[string]int `json:"unreadCounts,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Peer returns the other participant of the room. ok is false when identity
// is not a participant at all.
func (r Room) Peer(identity string) (string, bool) {
	switch identity {
	case r.Participants[0]:
		return r.Participants[1], true
	case r.Participants[1]:
		return r.Participants[0], true
	default:
		return "", false
	}
}

// HasParticipant reports whether identity belongs to the room.
func (r Room) HasParticipant(identity string) bool {
	return identity == r.Participants[0] || identity == r.Participants[1]
}

// Message is the durable chat message. Once created it is immutable except
// for retraction, which clears the content and sets the tombstone flag.
type Message struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	Sender     string    `json:"sender"`
	Text       string    `json:"text"`
	Attachment string    `json:"attachment,omitempty"`
	ReadBy     []string  `json:"readBy"`
	Retracted  bool      `json:"isUnsent"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DeliveredMessage is a Message with the sender's public profile resolved,
// the shape delivered to subscribers and returned to HTTP callers.
type DeliveredMessage struct {
	Message

	SenderProfile user.User `json:"senderProfile"`
}

// RoomSummary is a Room enriched with the peer's public profile for the
// caller's conversation list.
type RoomSummary struct {
	Room

	Peer user.User `json:"peer"`

	// Unread is the caller's own unread count for this room.
	Unread int `json:"unread"`
}
