/*
Package store implements the durable persistence surface of the chat core on
PostgreSQL, backed by a pgx connection pool.

It satisfies both chat.Store and chat.FriendStore. Absent rows map to
chat.ErrNotFound and unique-constraint collisions to chat.ErrDuplicate, so
the core never sees driver-level errors.
*/
package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the PostgreSQL implementation of chat.Store and chat.FriendStore.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on top of an initialized connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
