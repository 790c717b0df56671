package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aryankinha/chattingAPP/internal/app/user"
	"github.com/aryankinha/chattingAPP/internal/pkg/randx"
)

// fakeStore is the in-memory Store and FriendStore used by the hub tests.
type fakeStore struct {
	mu sync.Mutex

	rooms    map[string]Room
	messages map[string]Message
	order    map[string][]string // roomID -> message ids, append order
	unread   map[string]map[string]int
	friends  map[string]bool
	requests map[string]FriendRequest
	users    map[string]user.User
	lastSeen map[string]time.Time
	online   map[string]bool

	base time.Time
	seq  int

	failAppend bool
	failRooms  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:    make(map[string]Room),
		messages: make(map[string]Message),
		order:    make(map[string][]string),
		unread:   make(map[string]map[string]int),
		friends:  make(map[string]bool),
		requests: make(map[string]FriendRequest),
		users:    make(map[string]user.User),
		lastSeen: make(map[string]time.Time),
		online:   make(map[string]bool),
		base:     time.Now(),
	}
}

func pairKey(a, b string) string {
	return randx.RoomID(a, b)
}

// befriend marks the pair as accepted friends and seeds both profiles.
func (s *fakeStore) befriend(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.friends[pairKey(a, b)] = true
	for _, id := range []string{a, b} {
		if _, ok := s.users[id]; !ok {
			s.users[id] = user.User{ID: id, Name: "name-" + id}
		}
	}
}

func (s *fakeStore) addUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = user.User{ID: id, Name: "name-" + id}
}

func (s *fakeStore) tick() time.Time {
	s.seq++
	return s.base.Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *fakeStore) FindRoomsForParticipant(ctx context.Context, identity string) ([]Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failRooms {
		return nil, errors.New("rooms unavailable")
	}

	var result []Room
	for _, room := range s.rooms {
		if room.HasParticipant(identity) {
			result = append(result, room)
		}
	}
	return result, nil
}

func (s *fakeStore) CreateOrGetRoom(ctx context.Context, identityA, identityB string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID := randx.RoomID(identityA, identityB)
	if room, ok := s.rooms[roomID]; ok {
		return room, nil
	}

	first, second := randx.Participants(identityA, identityB)
	room := Room{
		ID:           roomID,
		Participants: [2]string{first, second},
		CreatedAt:    s.tick(),
	}
	s.rooms[roomID] = room
	s.unread[roomID] = map[string]int{first: 0, second: 0}
	return room, nil
}

func (s *fakeStore) GetRoom(ctx context.Context, roomID string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return Room{}, ErrNotFound
	}
	counts := make(map[string]int, 2)
	for id, n := range s.unread[roomID] {
		counts[id] = n
	}
	room.UnreadCounts = counts
	return room, nil
}

func (s *fakeStore) AppendMessage(ctx context.Context, roomID, sender, text, attachment string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAppend {
		return Message{}, errors.New("append failed")
	}

	msg := Message{
		ID:         randx.MessageID(),
		RoomID:     roomID,
		Sender:     sender,
		Text:       text,
		Attachment: attachment,
		ReadBy:     []string{sender},
		CreatedAt:  s.tick(),
	}
	s.messages[msg.ID] = msg
	s.order[roomID] = append(s.order[roomID], msg.ID)
	return msg, nil
}

func (s *fakeStore) GetMessage(ctx context.Context, messageID string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[messageID]
	if !ok {
		return Message{}, ErrNotFound
	}
	return msg, nil
}

func (s *fakeStore) RetractMessage(ctx context.Context, messageID, replacement string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[messageID]
	if !ok || msg.Retracted {
		return Message{}, ErrNotFound
	}
	msg.Text = replacement
	msg.Attachment = ""
	msg.Retracted = true
	s.messages[messageID] = msg
	return msg, nil
}

func (s *fakeStore) ListMessages(ctx context.Context, roomID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Message
	for _, id := range s.order[roomID] {
		result = append(result, s.messages[id])
	}
	return result, nil
}

func (s *fakeStore) LatestActiveMessage(ctx context.Context, roomID string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.order[roomID]
	for i := len(ids) - 1; i >= 0; i-- {
		if msg := s.messages[ids[i]]; !msg.Retracted {
			return msg, nil
		}
	}
	return Message{}, ErrNotFound
}

func (s *fakeStore) UpdateRoomSummary(ctx context.Context, roomID string, last *LastMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return ErrNotFound
	}
	room.LastMessage = last
	s.rooms[roomID] = room
	return nil
}

func (s *fakeStore) IncrementUnread(ctx context.Context, roomID, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unread[roomID] == nil {
		s.unread[roomID] = make(map[string]int)
	}
	s.unread[roomID][identity]++
	return nil
}

func (s *fakeStore) ResetUnread(ctx context.Context, roomID, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unread[roomID] != nil {
		s.unread[roomID][identity] = 0
	}
	return nil
}

func (s *fakeStore) IsActiveFriendship(ctx context.Context, identityA, identityB string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.friends[pairKey(identityA, identityB)], nil
}

func (s *fakeStore) SetLastSeen(ctx context.Context, identity string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen[identity] = ts
	s.online[identity] = false
	return nil
}

func (s *fakeStore) SetOnline(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.online[identity] = true
	return nil
}

func (s *fakeStore) GetUserProfile(ctx context.Context, identity string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.users[identity]
	if !ok {
		return user.User{}, ErrNotFound
	}
	return profile, nil
}

func (s *fakeStore) CreateFriendRequest(ctx context.Context, requester, recipient string) (FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.friends[pairKey(requester, recipient)] {
		return FriendRequest{}, ErrDuplicate
	}
	for _, req := range s.requests {
		if req.Status == "pending" && pairKey(req.Requester, req.Recipient) == pairKey(requester, recipient) {
			return FriendRequest{}, ErrDuplicate
		}
	}

	request := FriendRequest{
		ID:        fmt.Sprintf("req-%d", len(s.requests)+1),
		Requester: requester,
		Recipient: recipient,
		Status:    "pending",
		CreatedAt: s.tick(),
	}
	s.requests[request.ID] = request
	return request, nil
}

func (s *fakeStore) AcceptFriendRequest(ctx context.Context, requestID, recipient string) (FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok || request.Status != "pending" || request.Recipient != recipient {
		return FriendRequest{}, ErrNotFound
	}
	request.Status = "accepted"
	s.requests[requestID] = request
	s.friends[pairKey(request.Requester, request.Recipient)] = true
	return request, nil
}
