/*
Package chat contains the real-time core of the messaging server.

This file defines the Hub, which coordinates the whole live subsystem: it
admits authenticated connections into the registry, tracks presence, binds
connections to their rooms, and runs the message fan-out engine with
per-room ordering.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aryankinha/chattingAPP/internal/pkg/errs"
	"github.com/aryankinha/chattingAPP/internal/pkg/logx"
	"github.com/aryankinha/chattingAPP/internal/pkg/metrics"
)

// Hub owns the connection registry and the fan-out machinery. All state
// mutation shared between connections funnels through it.
type Hub struct {
	store   Store
	friends FriendStore

	registry *Registry
	subs     *subscriptions

	// roomLocks serializes persist+broadcast per room so two concurrent
	// sends to the same room cannot be delivered out of commit order.
	// Sends to different rooms proceed in parallel. Entries are never
	// freed; the map is bounded by the number of rooms touched by this
	// process.
	roomLocksMu sync.Mutex
	roomLocks   map[string]*sync.Mutex

	logger zerolog.Logger
}

// NewHub constructs a Hub over the durable store.
func NewHub(store Store, friends FriendStore) *Hub {
	hubLogger := logx.Logger().With().Str("component", "hub").Logger()

	return &Hub{
		store:     store,
		friends:   friends,
		registry:  NewRegistry(),
		subs:      newSubscriptions(),
		roomLocks: make(map[string]*sync.Mutex),
		logger:    hubLogger,
	}
}

// Registry exposes the connection registry for lookup-style collaborators.
func (h *Hub) Registry() *Registry { return h.registry }

// roomLock returns the ordering mutex for roomID, creating it on first use.
func (h *Hub) roomLock(roomID string) *sync.Mutex {
	h.roomLocksMu.Lock()
	defer h.roomLocksMu.Unlock()

	lock, ok := h.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		h.roomLocks[roomID] = lock
	}
	return lock
}

// Admit registers an authenticated connection, supersedes any previous
// connection of the same identity, binds the connection to every room the
// identity participates in, and broadcasts the updated online set.
func (h *Hub) Admit(ctx context.Context, client *Client) error {
	// Load the room set before touching the registry: a store failure here
	// must leave an existing session of the same identity untracked and
	// untouched, so no presence transition happens without its broadcast.
	rooms, err := h.store.FindRoomsForParticipant(ctx, client.identity)
	if err != nil {
		h.logger.Error().Err(err).Str("identity", client.identity).Msg("Failed to load rooms at admission")
		return errs.NewError(errs.ErrUnknown, err)
	}

	if prev := h.registry.Register(client.identity, client); prev != nil {
		// The registry contract only untracks the old entry; tearing the
		// superseded socket down as well avoids leaking its subscriptions.
		h.subs.dropClient(prev)
		prev.Kick("Session replaced by a new connection.")
	}

	for _, room := range rooms {
		h.subs.add(room.ID, client)
	}

	if err := h.store.SetOnline(ctx, client.identity); err != nil {
		h.logger.Warn().Err(err).Str("identity", client.identity).Msg("Failed to persist online status")
	}

	h.logger.Info().
		Str("identity", client.identity).
		Str("conn_id", client.connID).
		Int("rooms", len(rooms)).
		Int("online", h.registry.Len()).
		Msg("Connection admitted.")

	h.broadcastPresence()
	return nil
}

// Disconnect deregisters a connection. The removal is guarded: a late
// disconnect from a superseded connection leaves the newer entry intact and
// triggers no presence transition.
func (h *Hub) Disconnect(ctx context.Context, client *Client) {
	if !h.registry.UnregisterIfCurrent(client.identity, client) {
		h.logger.Info().
			Str("identity", client.identity).
			Str("conn_id", client.connID).
			Msg("Ignoring disconnect for stale connection.")
		h.subs.dropClient(client)
		return
	}

	h.subs.dropClient(client)

	// Best-effort: a failed lastSeen write never blocks the disconnect.
	if err := h.store.SetLastSeen(ctx, client.identity, time.Now()); err != nil {
		h.logger.Warn().Err(err).Str("identity", client.identity).Msg("Failed to persist lastSeen on disconnect")
	}

	h.logger.Info().
		Str("identity", client.identity).
		Str("conn_id", client.connID).
		Int("online", h.registry.Len()).
		Msg("Connection deregistered.")

	h.broadcastPresence()
}

// broadcastPresence delivers the full online snapshot to every registered
// connection. Delivery failures are dropped; the next transition or an
// explicit request-online-users resynchronizes the client.
func (h *Hub) broadcastPresence() {
	snapshot := h.registry.Snapshot()

	event, err := NewEvent(EventOnlineUsers, OnlineUsersPayload{IDs: snapshot})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build online-users event")
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal online-users event")
		return
	}

	for _, client := range h.registry.Clients() {
		if err := client.enqueue(data); err != nil {
			h.logger.Warn().Err(err).Str("identity", client.identity).Msg("Presence broadcast dropped for connection")
			continue
		}
		metrics.IncOutboundEvent(string(EventOnlineUsers))
	}
}

// SendOnlineSnapshot answers an explicit pull for the current online set,
// so a client that missed the last broadcast can resynchronize.
func (h *Hub) SendOnlineSnapshot(client *Client) {
	if err := client.SendEvent(EventOnlineUsers, OnlineUsersPayload{IDs: h.registry.Snapshot()}); err != nil {
		h.logger.Warn().Err(err).Str("identity", client.identity).Msg("Failed to answer online-users request")
	}
}

// JoinRoom subscribes an established connection to one additional room,
// covering rooms created after the connection was admitted.
func (h *Hub) JoinRoom(ctx context.Context, client *Client, roomID string) error {
	room, err := h.store.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errs.NewError(errs.ErrRoomNotFound)
		}
		return errs.NewError(errs.ErrUnknown, err)
	}

	if !room.HasParticipant(client.identity) {
		return errs.NewError(errs.ErrNotParticipant)
	}

	h.subs.add(roomID, client)
	return nil
}

// Send runs the full fan-out pipeline for one outbound message: friendship
// recheck, persist, room summary and unread updates, then delivery to every
// subscriber of the room. Persist happens strictly before broadcast, and
// both happen under the room's ordering lock.
func (h *Hub) Send(ctx context.Context, sender, roomID, text, attachment string) (*DeliveredMessage, error) {
	lock := h.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := h.store.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errs.NewError(errs.ErrRoomNotFound)
		}
		return nil, errs.NewError(errs.ErrUnknown, err)
	}

	peer, ok := room.Peer(sender)
	if !ok {
		return nil, errs.NewError(errs.ErrNotParticipant)
	}

	// Friendship and room lifecycles are decoupled; the room surviving a
	// removed friendship must not keep the channel open.
	active, err := h.store.IsActiveFriendship(ctx, sender, peer)
	if err != nil {
		return nil, errs.NewError(errs.ErrUnknown, err)
	}
	if !active {
		return nil, errs.NewError(errs.ErrNotFriends)
	}

	if text == "" && attachment == "" {
		return nil, errs.NewError(errs.ErrEmptyMessage)
	}

	msg, err := h.store.AppendMessage(ctx, roomID, sender, text, attachment)
	if err != nil {
		// Nothing was persisted, so nothing may be broadcast.
		return nil, errs.NewError(errs.ErrUnknown, err)
	}

	summaryText := msg.Text
	if summaryText == "" {
		summaryText = "\U0001F4CE Attachment"
	}
	last := &LastMessage{
		Text:      summaryText,
		Sender:    sender,
		CreatedAt: msg.CreatedAt,
	}
	if err := h.store.UpdateRoomSummary(ctx, roomID, last); err != nil {
		// The message log is authoritative; a stale snapshot heals on the
		// next send or retract.
		h.logger.Warn().Err(err).Str("room_id", roomID).Msg("Failed to update room summary")
	}

	if err := h.store.IncrementUnread(ctx, roomID, peer); err != nil {
		h.logger.Warn().Err(err).Str("room_id", roomID).Str("identity", peer).Msg("Failed to increment unread counter")
	}

	profile, err := h.store.GetUserProfile(ctx, sender)
	if err != nil {
		h.logger.Warn().Err(err).Str("identity", sender).Msg("Failed to resolve sender profile for delivery")
	}

	delivered := DeliveredMessage{Message: msg, SenderProfile: profile}

	h.deliverToRoom(roomID, EventReceiveMessage, ReceiveMessagePayload{Message: delivered})
	metrics.IncMessageSent()

	return &delivered, nil
}

// Retract tombstones one of the requester's messages, repairs the room
// summary when the retracted message was the snapshot, and announces the
// retraction to the room. Unlike Send, the announcement is fire-and-forget
// with respect to ordering; retraction is idempotent at the client.
func (h *Hub) Retract(ctx context.Context, requester, messageID string) error {
	msg, err := h.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errs.NewError(errs.ErrMessageNotFound)
		}
		return errs.NewError(errs.ErrUnknown, err)
	}

	if msg.Sender != requester {
		return errs.NewError(errs.ErrNotMessageSender)
	}

	if msg.Retracted {
		// Already tombstoned; there is no active message to retract.
		return errs.NewError(errs.ErrMessageNotFound)
	}

	if _, err := h.store.RetractMessage(ctx, messageID, RetractedText); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errs.NewError(errs.ErrMessageNotFound)
		}
		return errs.NewError(errs.ErrUnknown, err)
	}

	h.repairRoomSummary(ctx, msg)

	h.deliverToRoom(msg.RoomID, EventMessageRetracted, MessageRetractedPayload{
		MessageID:       messageID,
		RoomID:          msg.RoomID,
		ReplacementText: RetractedText,
	})

	return nil
}

// repairRoomSummary recomputes the room's lastMessage snapshot when the
// retracted message was the one on display. It runs under the room's
// ordering lock so a concurrent send cannot commit between the recompute
// and the snapshot write and then have its newer snapshot overwritten.
func (h *Hub) repairRoomSummary(ctx context.Context, retracted Message) {
	lock := h.roomLock(retracted.RoomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := h.store.GetRoom(ctx, retracted.RoomID)
	if err != nil {
		h.logger.Warn().Err(err).Str("room_id", retracted.RoomID).Msg("Failed to load room for summary repair")
		return
	}

	if room.LastMessage == nil || !room.LastMessage.CreatedAt.Equal(retracted.CreatedAt) {
		return
	}

	latest, err := h.store.LatestActiveMessage(ctx, retracted.RoomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if err := h.store.UpdateRoomSummary(ctx, retracted.RoomID, nil); err != nil {
				h.logger.Warn().Err(err).Str("room_id", retracted.RoomID).Msg("Failed to clear room summary")
			}
			return
		}
		h.logger.Warn().Err(err).Str("room_id", retracted.RoomID).Msg("Failed to recompute room summary")
		return
	}

	summaryText := latest.Text
	if summaryText == "" {
		summaryText = "\U0001F4CE Attachment"
	}
	last := &LastMessage{
		Text:      summaryText,
		Sender:    latest.Sender,
		CreatedAt: latest.CreatedAt,
	}
	if err := h.store.UpdateRoomSummary(ctx, retracted.RoomID, last); err != nil {
		h.logger.Warn().Err(err).Str("room_id", retracted.RoomID).Msg("Failed to update room summary after retraction")
	}
}

// MarkRead zeroes the caller's unread counter for the room. The counter is
// only read by its own owner, so no broadcast follows.
func (h *Hub) MarkRead(ctx context.Context, identity, roomID string) error {
	room, err := h.store.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errs.NewError(errs.ErrRoomNotFound)
		}
		return errs.NewError(errs.ErrUnknown, err)
	}

	if !room.HasParticipant(identity) {
		return errs.NewError(errs.ErrNotParticipant)
	}

	if err := h.store.ResetUnread(ctx, roomID, identity); err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}
	return nil
}

// OpenRoom returns the room for the caller and peer, creating it on first
// direct open. Requires an active friendship, and binds both parties' live
// connections to the room so delivery works immediately.
func (h *Hub) OpenRoom(ctx context.Context, identity, peer string) (Room, error) {
	if peer == "" || peer == identity {
		return Room{}, errs.NewError(errs.ErrInvalidParams)
	}

	active, err := h.store.IsActiveFriendship(ctx, identity, peer)
	if err != nil {
		return Room{}, errs.NewError(errs.ErrUnknown, err)
	}
	if !active {
		return Room{}, errs.NewError(errs.ErrNotFriends)
	}

	room, err := h.store.CreateOrGetRoom(ctx, identity, peer)
	if err != nil {
		return Room{}, errs.NewError(errs.ErrUnknown, err)
	}

	for _, participant := range room.Participants {
		if client, ok := h.registry.Lookup(participant); ok {
			h.subs.add(room.ID, client)
		}
	}

	return room, nil
}

// deliverToRoom posts one event to every connection subscribed to roomID,
// exactly once each. A failed enqueue (the subscriber's queue is full or
// closed) is swallowed for that subscriber and triggers opportunistic
// deregistration; it never aborts delivery to the others.
func (h *Hub) deliverToRoom(roomID string, eventType EventType, payload any) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to build room event")
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to marshal room event")
		return
	}

	for _, client := range h.subs.subscribers(roomID) {
		if err := client.enqueue(data); err != nil {
			h.logger.Warn().
				Err(err).
				Str("identity", client.identity).
				Str("room_id", roomID).
				Msg("Delivery failed for subscriber, deregistering connection")

			h.Disconnect(context.Background(), client)
			client.closeSend()
			continue
		}
		metrics.IncOutboundEvent(string(eventType))
	}
}

// Shutdown closes the outbound queue of every live connection, letting the
// write loops flush and terminate.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down hub, closing all connections...")

	for _, client := range h.registry.Clients() {
		client.closeSend()
	}
}
