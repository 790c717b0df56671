/*
Package chat contains the real-time core of the messaging server.

This file defines the friend-event relay: friendship state changes are
persisted by their originating operation, and the relay delivers a
low-latency nudge to the affected user's connection when one is online.
An offline target simply misses the nudge; the durable friendship record
remains the source of truth.
*/
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/aryankinha/chattingAPP/internal/pkg/errs"
)

// ErrDuplicate is returned by FriendStore implementations when a pending or
// accepted friendship already exists for the pair.
var ErrDuplicate = errors.New("already exists")

// FriendRequest is the durable friendship record in its request lifecycle.
type FriendRequest struct {
	ID        string    `json:"id"`
	Requester string    `json:"requester"`
	Recipient string    `json:"recipient"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// FriendStore persists friend-request lifecycle transitions.
type FriendStore interface {
	// CreateFriendRequest inserts a pending request, or ErrDuplicate when
	// the pair already has one.
	CreateFriendRequest(ctx context.Context, requester, recipient string) (FriendRequest, error)

	// AcceptFriendRequest flips a pending request addressed to recipient
	// into accepted, or ErrNotFound when no such pending request exists.
	AcceptFriendRequest(ctx context.Context, requestID, recipient string) (FriendRequest, error)
}

// Notify delivers an event to the target identity's connection if one is
// registered, and silently does nothing otherwise.
func (h *Hub) Notify(target string, eventType EventType, payload any) {
	client, ok := h.registry.Lookup(target)
	if !ok {
		return
	}

	if err := client.SendEvent(eventType, payload); err != nil {
		h.logger.Warn().Err(err).Str("identity", target).Str("event_type", string(eventType)).Msg("Friend-event delivery dropped")
	}
}

// SendFriendRequest persists a new pending friend request and nudges the
// recipient's connection when online.
func (h *Hub) SendFriendRequest(ctx context.Context, requester, recipient string) error {
	if recipient == "" || recipient == requester {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if _, err := h.store.GetUserProfile(ctx, recipient); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errs.NewError(errs.ErrUserNotFound)
		}
		return errs.NewError(errs.ErrUnknown, err)
	}

	request, err := h.friends.CreateFriendRequest(ctx, requester, recipient)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return errs.NewError(errs.ErrFriendRequestExists)
		}
		return errs.NewError(errs.ErrUnknown, err)
	}

	h.Notify(recipient, EventFriendRequestReceived, FriendRequestReceivedPayload{
		RequestID:   request.ID,
		RequesterID: requester,
	})

	return nil
}

// AcceptFriendRequest accepts a pending request addressed to recipient,
// lazily creates the pair's room, binds both online parties to it, and
// nudges the original requester with the room id.
func (h *Hub) AcceptFriendRequest(ctx context.Context, recipient, requestID string) error {
	request, err := h.friends.AcceptFriendRequest(ctx, requestID, recipient)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errs.NewError(errs.ErrFriendRequestNotFound)
		}
		return errs.NewError(errs.ErrUnknown, err)
	}

	room, err := h.store.CreateOrGetRoom(ctx, request.Requester, request.Recipient)
	if err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}

	// Both parties may have connected before the room existed; bind their
	// live connections now so the first message needs no explicit join.
	for _, identity := range room.Participants {
		if client, ok := h.registry.Lookup(identity); ok {
			h.subs.add(room.ID, client)
		}
	}

	h.Notify(request.Requester, EventFriendRequestAccepted, FriendRequestAcceptedPayload{
		ByID:   recipient,
		RoomID: room.ID,
	})

	return nil
}
