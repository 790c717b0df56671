/*
Package chat contains the real-time core of the messaging server.

This file defines the Registry, the process-wide map from user identity to
the single live connection bound to it. It is the source of truth for who
is online.
*/
package chat

import (
	"sort"
	"sync"
)

// Registry maps each identity to at most one live connection. A newer
// connection for the same identity supersedes the old entry.
type Registry struct {
	// mu protects concurrent access to the conns map.
	mu sync.RWMutex

	// conns maps user identity to its registered connection.
	conns map[string]*Client
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Client),
	}
}

// Register binds identity to client, returning the superseded connection if
// one was registered. The superseded connection is only untracked here; the
// caller decides whether to tear it down.
func (r *Registry) Register(identity string, client *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[identity]
	if prev == client {
		return nil
	}
	r.conns[identity] = client
	return prev
}

// UnregisterIfCurrent removes the entry for identity only when it still
// points at client. A late disconnect from a superseded connection must not
// evict the newer live one.
func (r *Registry) UnregisterIfCurrent(identity string, client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.conns[identity]
	if !ok || current != client {
		return false
	}
	delete(r.conns, identity)
	return true
}

// Lookup returns the live connection for identity, if any.
func (r *Registry) Lookup(identity string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.conns[identity]
	return client, ok
}

// Snapshot returns the sorted set of currently online identities.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.conns))
	for identity := range r.conns {
		ids = append(ids, identity)
	}
	sort.Strings(ids)
	return ids
}

// Clients returns a copy of the currently registered connections, so
// callers can deliver to them without holding the registry lock.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.conns))
	for _, client := range r.conns {
		clients = append(clients, client)
	}
	return clients
}

// Len returns the number of online identities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
