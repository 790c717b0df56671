/*
Package chat contains the real-time core of the messaging server.

This file defines the wire envelope exchanged over the live channel and the
payloads of every event type, client-to-server and server-to-client.
*/
package chat

import (
	"encoding/json"
	"time"
)

// EventType names one live-channel event.
type EventType string

// Client-to-server event types.
const (
	EventJoinRoom           EventType = "join-room"
	EventSendMessage        EventType = "send-message"
	EventRetractMessage     EventType = "retract-message"
	EventRequestOnlineUsers EventType = "request-online-users"
	EventSendFriendRequest  EventType = "send-friend-request"
	EventAcceptFriendReq    EventType = "accept-friend-request"
)

// Server-to-client event types.
const (
	EventOnlineUsers           EventType = "online-users"
	EventReceiveMessage        EventType = "receive-message"
	EventMessageRetracted      EventType = "message-retracted"
	EventFriendRequestReceived EventType = "friend-request-received"
	EventFriendRequestAccepted EventType = "friend-request-accepted"
	EventError                 EventType = "error"
)

// Event is the envelope carried in both directions on the live channel.
type Event struct {
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// NewEvent builds an Event with the payload marshaled in place.
func NewEvent(eventType EventType, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{
		Type:      eventType,
		Payload:   raw,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// JoinRoomPayload asks the server to subscribe the connection to one more room.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// SendMessagePayload carries an outbound message from the live channel.
type SendMessagePayload struct {
	RoomID     string `json:"roomId"`
	Text       string `json:"text"`
	Attachment string `json:"attachment,omitempty"`
}

// RetractMessagePayload asks the server to unsend one of the caller's messages.
type RetractMessagePayload struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
}

// OnlineUsersPayload is the full snapshot of online identities, sent on
// every presence transition and on explicit request.
type OnlineUsersPayload struct {
	IDs []string `json:"ids"`
}

// ReceiveMessagePayload delivers a committed message to a room subscriber.
type ReceiveMessagePayload struct {
	Message DeliveredMessage `json:"message"`
}

// MessageRetractedPayload announces a retraction to a room's subscribers.
type MessageRetractedPayload struct {
	MessageID       string `json:"messageId"`
	RoomID          string `json:"roomId"`
	ReplacementText string `json:"newText"`
}

// SendFriendRequestPayload carries a new friend request over the live channel.
type SendFriendRequestPayload struct {
	RecipientID string `json:"recipientId"`
}

// AcceptFriendRequestPayload accepts a pending friend request.
type AcceptFriendRequestPayload struct {
	RequestID string `json:"requestId"`
}

// FriendRequestReceivedPayload nudges an online recipient about a new request.
type FriendRequestReceivedPayload struct {
	RequestID   string `json:"requestId"`
	RequesterID string `json:"requesterId"`
}

// FriendRequestAcceptedPayload nudges an online requester that the request
// was accepted, carrying the room so the conversation can open immediately.
type FriendRequestAcceptedPayload struct {
	ByID   string `json:"byId"`
	RoomID string `json:"roomId"`
}

// ErrorPayload reports a live-channel failure back to the sending connection only.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
