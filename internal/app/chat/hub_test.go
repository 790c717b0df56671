package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryankinha/chattingAPP/internal/pkg/errs"
)

func newTestHub(t *testing.T) (*Hub, *fakeStore) {
	t.Helper()
	fake := newFakeStore()
	return NewHub(fake, fake), fake
}

// admit connects identity to the hub over a connection-less client, so the
// outbound queue can be inspected directly.
func admit(t *testing.T, hub *Hub, identity string) *Client {
	t.Helper()
	client := NewClient(hub, nil, identity)
	require.NoError(t, hub.Admit(context.Background(), client))
	return client
}

// drainEvents empties the client's outbound queue and decodes every frame.
func drainEvents(t *testing.T, client *Client) []Event {
	t.Helper()
	var events []Event
	for {
		select {
		case data, ok := <-client.send:
			if !ok {
				return events
			}
			var event Event
			require.NoError(t, json.Unmarshal(data, &event))
			events = append(events, event)
		default:
			return events
		}
	}
}

func eventsOfType(events []Event, eventType EventType) []Event {
	var out []Event
	for _, event := range events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func TestAdmitBroadcastsPresenceToEveryone(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.addUser("u1")
	fake.addUser("u2")

	c1 := admit(t, hub, "u1")
	c2 := admit(t, hub, "u2")

	// u1 saw both its own admission and u2's.
	events := eventsOfType(drainEvents(t, c1), EventOnlineUsers)
	require.NotEmpty(t, events)

	var snapshot OnlineUsersPayload
	require.NoError(t, json.Unmarshal(events[len(events)-1].Payload, &snapshot))
	assert.Equal(t, []string{"u1", "u2"}, snapshot.IDs)

	events = eventsOfType(drainEvents(t, c2), EventOnlineUsers)
	require.NotEmpty(t, events)
	require.NoError(t, json.Unmarshal(events[len(events)-1].Payload, &snapshot))
	assert.Equal(t, []string{"u1", "u2"}, snapshot.IDs)

	assert.True(t, fake.online["u1"])
	assert.True(t, fake.online["u2"])
}

func TestDisconnectUpdatesPresenceAndLastSeen(t *testing.T) {
	hub, fake := newTestHub(t)
	c1 := admit(t, hub, "u1")
	c2 := admit(t, hub, "u2")

	hub.Disconnect(context.Background(), c1)

	assert.Equal(t, []string{"u2"}, hub.Registry().Snapshot())
	assert.False(t, fake.online["u1"])
	assert.Contains(t, fake.lastSeen, "u1")

	events := eventsOfType(drainEvents(t, c2), EventOnlineUsers)
	require.NotEmpty(t, events)

	var snapshot OnlineUsersPayload
	require.NoError(t, json.Unmarshal(events[len(events)-1].Payload, &snapshot))
	assert.Equal(t, []string{"u2"}, snapshot.IDs)
}

func TestSupersededConnectionIsKickedAndStaleDisconnectIgnored(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.befriend("u1", "u2")

	room, err := fake.CreateOrGetRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	first := admit(t, hub, "u1")
	second := admit(t, hub, "u1")

	current, ok := hub.Registry().Lookup("u1")
	require.True(t, ok)
	require.Same(t, second, current)

	// The kicked connection's queue is closed; nothing more reaches it.
	require.ErrorIs(t, first.enqueue([]byte("{}")), errQueueClosed)
	assert.Empty(t, hub.subs.roomsOf(first))
	assert.Contains(t, hub.subs.roomsOf(second), room.ID)

	// The old socket's read loop ends later; its disconnect must not evict
	// the new session or flip presence.
	hub.Disconnect(context.Background(), first)

	current, ok = hub.Registry().Lookup("u1")
	require.True(t, ok)
	assert.Same(t, second, current)
	assert.Equal(t, []string{"u1"}, hub.Registry().Snapshot())
}

func TestFailedAdmissionLeavesExistingSessionIntact(t *testing.T) {
	hub, fake := newTestHub(t)

	observer := admit(t, hub, "observer")
	first := admit(t, hub, "u1")
	drainEvents(t, observer)

	// With the store down, a reconnect attempt for u1 must fail without
	// kicking the session already in place.
	fake.failRooms = true
	second := NewClient(hub, nil, "u1")
	require.Error(t, hub.Admit(context.Background(), second))

	current, ok := hub.Registry().Lookup("u1")
	require.True(t, ok)
	assert.Same(t, first, current)
	assert.Equal(t, []string{"observer", "u1"}, hub.Registry().Snapshot())

	// The surviving connection still receives deliveries.
	assert.NoError(t, first.enqueue([]byte("{}")))

	// No presence transition happened, so nobody was told anything and u1
	// was neither marked offline nor stamped with a lastSeen.
	assert.Empty(t, eventsOfType(drainEvents(t, observer), EventOnlineUsers))
	assert.True(t, fake.online["u1"])
	assert.NotContains(t, fake.lastSeen, "u1")
}

func TestSendPersistsThenFansOutToBothParticipants(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.befriend("u1", "u2")

	room, err := hub.OpenRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	sender := admit(t, hub, "u1")
	receiver := admit(t, hub, "u2")
	drainEvents(t, sender)
	drainEvents(t, receiver)

	delivered, err := hub.Send(context.Background(), "u1", room.ID, "hello", "")
	require.NoError(t, err)
	require.Equal(t, "hello", delivered.Text)
	assert.Equal(t, []string{"u1"}, delivered.ReadBy)
	assert.Equal(t, "name-u1", delivered.SenderProfile.Name)

	for _, client := range []*Client{sender, receiver} {
		events := eventsOfType(drainEvents(t, client), EventReceiveMessage)
		require.Len(t, events, 1, "identity %s", client.identity)

		var payload ReceiveMessagePayload
		require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
		assert.Equal(t, delivered.ID, payload.Message.ID)
		assert.Equal(t, "hello", payload.Message.Text)
	}

	stored, err := fake.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessage)
	assert.Equal(t, "hello", stored.LastMessage.Text)
	assert.Equal(t, "u1", stored.LastMessage.Sender)
	assert.Equal(t, 1, stored.UnreadCounts["u2"])
	assert.Equal(t, 0, stored.UnreadCounts["u1"])
}

func TestSendAttachmentOnlyUsesAttachmentSummary(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.befriend("u1", "u2")

	room, err := hub.OpenRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	_, err = hub.Send(context.Background(), "u1", room.ID, "", "rooms/u1_u2/pic.png")
	require.NoError(t, err)

	stored, err := fake.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessage)
	assert.Equal(t, "\U0001F4CE Attachment", stored.LastMessage.Text)
}

func TestSendRejectedWithoutFriendshipOrMembership(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.befriend("u1", "u2")

	room, err := hub.OpenRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	// Friendship removed after the room existed: the room stays, the
	// channel closes.
	fake.mu.Lock()
	fake.friends[pairKey("u1", "u2")] = false
	fake.mu.Unlock()

	_, err = hub.Send(context.Background(), "u1", room.ID, "hello", "")
	requireErrCode(t, err, errs.ErrNotFriends)

	// A third party is not a participant regardless of friendships.
	fake.befriend("u1", "u2")
	_, err = hub.Send(context.Background(), "intruder", room.ID, "hello", "")
	requireErrCode(t, err, errs.ErrNotParticipant)

	_, err = hub.Send(context.Background(), "u1", "missing_room", "hello", "")
	requireErrCode(t, err, errs.ErrRoomNotFound)

	_, err = hub.Send(context.Background(), "u1", room.ID, "", "")
	requireErrCode(t, err, errs.ErrEmptyMessage)
}

func TestSendFailedPersistAbortsBroadcast(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.befriend("u1", "u2")

	room, err := hub.OpenRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	receiver := admit(t, hub, "u2")
	drainEvents(t, receiver)

	fake.failAppend = true
	_, err = hub.Send(context.Background(), "u1", room.ID, "hello", "")
	require.Error(t, err)

	assert.Empty(t, eventsOfType(drainEvents(t, receiver), EventReceiveMessage))

	messages, err := fake.ListMessages(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	stored, err := fake.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastMessage)
	assert.Equal(t, 0, stored.UnreadCounts["u2"])
}

func TestSendOrderingPerRoomUnderConcurrency(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.befriend("u1", "u2")

	room, err := hub.OpenRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	receiver := admit(t, hub, "u2")
	drainEvents(t, receiver)

	const sends = 40
	var wg sync.WaitGroup
	for i := 0; i < sends; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := hub.Send(context.Background(), "u1", room.ID, fmt.Sprintf("msg-%d", n), "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	messages, err := fake.ListMessages(context.Background(), room.ID)
	require.NoError(t, err)
	require.Len(t, messages, sends)

	// Delivery order to any subscriber matches commit order.
	events := eventsOfType(drainEvents(t, receiver), EventReceiveMessage)
	require.Len(t, events, sends)

	for i, event := range events {
		var payload ReceiveMessagePayload
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, messages[i].ID, payload.Message.ID)
	}
}

func TestRetractTombstonesAndRepairsSummary(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.befriend("u1", "u2")

	room, err := hub.OpenRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	receiver := admit(t, hub, "u2")

	first, err := hub.Send(context.Background(), "u1", room.ID, "first", "")
	require.NoError(t, err)
	second, err := hub.Send(context.Background(), "u1", room.ID, "second", "")
	require.NoError(t, err)
	drainEvents(t, receiver)

	require.NoError(t, hub.Retract(context.Background(), "u1", second.ID))

	stored, err := fake.GetMessage(context.Background(), second.ID)
	require.NoError(t, err)
	assert.True(t, stored.Retracted)
	assert.Equal(t, RetractedText, stored.Text)

	// The snapshot falls back to the newest surviving message.
	updated, err := fake.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.LastMessage)
	assert.Equal(t, "first", updated.LastMessage.Text)

	events := eventsOfType(drainEvents(t, receiver), EventMessageRetracted)
	require.Len(t, events, 1)

	var payload MessageRetractedPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, second.ID, payload.MessageID)
	assert.Equal(t, RetractedText, payload.ReplacementText)

	// Retraction is terminal: a second attempt finds no active message.
	requireErrCode(t, hub.Retract(context.Background(), "u1", second.ID), errs.ErrMessageNotFound)

	// Retracting the last survivor clears the snapshot entirely.
	require.NoError(t, hub.Retract(context.Background(), "u1", first.ID))
	updated, err = fake.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.LastMessage)
}

func TestConcurrentSendAndRetractKeepsNewestSummary(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.befriend("u1", "u2")

	room, err := hub.OpenRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	// A retraction's summary repair racing a fresh send must never leave an
	// older snapshot on display. Repeat to cover both interleavings.
	for i := 0; i < 20; i++ {
		old, err := hub.Send(context.Background(), "u1", room.ID, fmt.Sprintf("old-%d", i), "")
		require.NoError(t, err)
		newest := fmt.Sprintf("new-%d", i)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := hub.Send(context.Background(), "u1", room.ID, newest, "")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, hub.Retract(context.Background(), "u1", old.ID))
		}()
		wg.Wait()

		stored, err := fake.GetRoom(context.Background(), room.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastMessage, "iteration %d", i)
		assert.Equal(t, newest, stored.LastMessage.Text, "iteration %d", i)
	}
}

func TestRoomCreationPreservesSeparatorInIdentities(t *testing.T) {
	_, fake := newTestHub(t)

	// Identities are opaque; one containing the room id separator must not
	// corrupt the persisted participant pair.
	room, err := fake.CreateOrGetRoom(context.Background(), "c", "a_b")
	require.NoError(t, err)
	assert.Equal(t, [2]string{"a_b", "c"}, room.Participants)

	again, err := fake.CreateOrGetRoom(context.Background(), "a_b", "c")
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)
	assert.True(t, room.HasParticipant("a_b"))
	assert.False(t, room.HasParticipant("a"))
}

func TestRetractRequiresSender(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.befriend("u1", "u2")

	room, err := hub.OpenRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	msg, err := hub.Send(context.Background(), "u1", room.ID, "mine", "")
	require.NoError(t, err)

	requireErrCode(t, hub.Retract(context.Background(), "u2", msg.ID), errs.ErrNotMessageSender)
	requireErrCode(t, hub.Retract(context.Background(), "u1", "missing"), errs.ErrMessageNotFound)
}

func TestMarkReadResetsOwnCounterOnly(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.befriend("u1", "u2")

	room, err := hub.OpenRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	_, err = hub.Send(context.Background(), "u1", room.ID, "one", "")
	require.NoError(t, err)
	_, err = hub.Send(context.Background(), "u1", room.ID, "two", "")
	require.NoError(t, err)

	stored, err := fake.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.UnreadCounts["u2"])

	require.NoError(t, hub.MarkRead(context.Background(), "u2", room.ID))

	stored, err = fake.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UnreadCounts["u2"])

	requireErrCode(t, hub.MarkRead(context.Background(), "intruder", room.ID), errs.ErrNotParticipant)
	requireErrCode(t, hub.MarkRead(context.Background(), "u2", "missing_room"), errs.ErrRoomNotFound)
}

func TestOpenRoomRequiresFriendshipAndBindsOnlineParties(t *testing.T) {
	hub, fake := newTestHub(t)

	_, err := hub.OpenRoom(context.Background(), "u1", "u2")
	requireErrCode(t, err, errs.ErrNotFriends)

	fake.befriend("u1", "u2")

	c1 := admit(t, hub, "u1")
	c2 := admit(t, hub, "u2")

	room, err := hub.OpenRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	again, err := hub.OpenRoom(context.Background(), "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)

	assert.Contains(t, hub.subs.roomsOf(c1), room.ID)
	assert.Contains(t, hub.subs.roomsOf(c2), room.ID)

	_, err = hub.OpenRoom(context.Background(), "u1", "u1")
	requireErrCode(t, err, errs.ErrInvalidParams)
}

func TestJoinRoomRequiresMembership(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.befriend("u1", "u2")

	room, err := fake.CreateOrGetRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	// Connected before the room existed, so admission did not bind it.
	outsider := admit(t, hub, "u3")
	member := admit(t, hub, "u1")
	hub.subs.dropClient(member)

	requireErrCode(t, hub.JoinRoom(context.Background(), outsider, room.ID), errs.ErrNotParticipant)
	requireErrCode(t, hub.JoinRoom(context.Background(), outsider, "missing"), errs.ErrRoomNotFound)

	require.NoError(t, hub.JoinRoom(context.Background(), member, room.ID))
	assert.Contains(t, hub.subs.roomsOf(member), room.ID)
}

func TestFriendRequestRelayAndAccept(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.addUser("u1")
	fake.addUser("u2")

	requester := admit(t, hub, "u1")
	recipient := admit(t, hub, "u2")
	drainEvents(t, requester)
	drainEvents(t, recipient)

	require.NoError(t, hub.SendFriendRequest(context.Background(), "u1", "u2"))

	events := eventsOfType(drainEvents(t, recipient), EventFriendRequestReceived)
	require.Len(t, events, 1)

	var received FriendRequestReceivedPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &received))
	assert.Equal(t, "u1", received.RequesterID)
	require.NotEmpty(t, received.RequestID)

	// Duplicate while pending.
	requireErrCode(t, hub.SendFriendRequest(context.Background(), "u1", "u2"), errs.ErrFriendRequestExists)
	// Self and unknown targets.
	requireErrCode(t, hub.SendFriendRequest(context.Background(), "u1", "u1"), errs.ErrInvalidParams)
	requireErrCode(t, hub.SendFriendRequest(context.Background(), "u1", "ghost"), errs.ErrUserNotFound)

	require.NoError(t, hub.AcceptFriendRequest(context.Background(), "u2", received.RequestID))

	accepted := eventsOfType(drainEvents(t, requester), EventFriendRequestAccepted)
	require.Len(t, accepted, 1)

	var payload FriendRequestAcceptedPayload
	require.NoError(t, json.Unmarshal(accepted[0].Payload, &payload))
	assert.Equal(t, "u2", payload.ByID)
	require.NotEmpty(t, payload.RoomID)

	// Accept created the room and bound both live connections.
	assert.Contains(t, hub.subs.roomsOf(requester), payload.RoomID)
	assert.Contains(t, hub.subs.roomsOf(recipient), payload.RoomID)

	active, err := fake.IsActiveFriendship(context.Background(), "u1", "u2")
	require.NoError(t, err)
	assert.True(t, active)

	// A handled request cannot be accepted twice.
	requireErrCode(t, hub.AcceptFriendRequest(context.Background(), "u2", received.RequestID), errs.ErrFriendRequestNotFound)
}

func TestFriendRequestToOfflineRecipientIsSilentlyDropped(t *testing.T) {
	hub, fake := newTestHub(t)
	fake.addUser("u1")
	fake.addUser("u2")

	require.NoError(t, hub.SendFriendRequest(context.Background(), "u1", "u2"))

	// Nobody online, nothing delivered, no error: the durable record is
	// the source of truth.
	fake.mu.Lock()
	pending := len(fake.requests)
	fake.mu.Unlock()
	assert.Equal(t, 1, pending)
}

func TestRequestOnlineUsersSnapshot(t *testing.T) {
	hub, _ := newTestHub(t)

	c1 := admit(t, hub, "u1")
	admit(t, hub, "u2")
	drainEvents(t, c1)

	hub.SendOnlineSnapshot(c1)

	events := eventsOfType(drainEvents(t, c1), EventOnlineUsers)
	require.Len(t, events, 1)

	var snapshot OnlineUsersPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &snapshot))
	assert.Equal(t, []string{"u1", "u2"}, snapshot.IDs)
}

// requireErrCode asserts that err carries the given business code.
func requireErrCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, errs.AsCustom(err).Code, "unexpected business code for %v", err)
}
