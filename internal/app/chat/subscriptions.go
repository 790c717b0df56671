/*
Package chat contains the real-time core of the messaging server.

This file defines the room subscription index used by the fan-out engine:
which connections receive events for which rooms. Binding happens at
admission (and on demand for rooms created mid-session), so delivery never
needs a per-message membership query.
*/
package chat

import "sync"

// subscriptions is the bidirectional index between room ids and subscribed
// connections.
type subscriptions struct {
	// mu protects both maps.
	mu sync.RWMutex

	// byRoom maps a room id to its subscribed connections.
	byRoom map[string]map[*Client]struct{}

	// byClient maps a connection to the set of room ids it subscribes to.
	byClient map[*Client]map[string]struct{}
}

func newSubscriptions() *subscriptions {
	return &subscriptions{
		byRoom:   make(map[string]map[*Client]struct{}),
		byClient: make(map[*Client]map[string]struct{}),
	}
}

// add subscribes client to roomID.
func (s *subscriptions) add(roomID string, client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byRoom[roomID]; !ok {
		s.byRoom[roomID] = make(map[*Client]struct{})
	}
	s.byRoom[roomID][client] = struct{}{}

	if _, ok := s.byClient[client]; !ok {
		s.byClient[client] = make(map[string]struct{})
	}
	s.byClient[client][roomID] = struct{}{}
}

// dropClient removes every subscription held by client. Called on
// disconnect and when a connection is superseded.
func (s *subscriptions) dropClient(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for roomID := range s.byClient[client] {
		delete(s.byRoom[roomID], client)
		if len(s.byRoom[roomID]) == 0 {
			delete(s.byRoom, roomID)
		}
	}
	delete(s.byClient, client)
}

// subscribers returns the current subscriber set of roomID as a slice, so
// delivery iterates without holding the lock.
func (s *subscriptions) subscribers(roomID string) []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := s.byRoom[roomID]
	if len(members) == 0 {
		return nil
	}

	out := make([]*Client, 0, len(members))
	for client := range members {
		out = append(out, client)
	}
	return out
}

// roomsOf returns the room ids client currently subscribes to.
func (s *subscriptions) roomsOf(client *Client) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := s.byClient[client]
	out := make([]string, 0, len(rooms))
	for roomID := range rooms {
		out = append(out, roomID)
	}
	return out
}
