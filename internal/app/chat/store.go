package chat

import (
	"context"
	"errors"
	"time"

	"github.com/aryankinha/chattingAPP/internal/app/user"
)

// ErrNotFound is returned by Store implementations when the addressed room,
// message, or user does not exist.
var ErrNotFound = errors.New("not found")

// Store is the durable persistence surface consumed by the core. The
// implementation lives in internal/app/store; tests substitute an in-memory
// fake.
type Store interface {
	// FindRoomsForParticipant returns every room identity participates in.
	FindRoomsForParticipant(ctx context.Context, identity string) ([]Room, error)

	// CreateOrGetRoom returns the room for the pair, creating it on first
	// use. Idempotent for any ordering of the two identities.
	CreateOrGetRoom(ctx context.Context, identityA, identityB string) (Room, error)

	// GetRoom returns the room by id or ErrNotFound.
	GetRoom(ctx context.Context, roomID string) (Room, error)

	// AppendMessage persists a new message with readBy initialized to the
	// sender.
	AppendMessage(ctx context.Context, roomID, sender, text, attachment string) (Message, error)

	// GetMessage returns the message by id or ErrNotFound.
	GetMessage(ctx context.Context, messageID string) (Message, error)

	// RetractMessage clears the message content and sets the tombstone.
	// It affects only messages that are not yet retracted; retrying a
	// retraction returns ErrNotFound.
	RetractMessage(ctx context.Context, messageID, replacement string) (Message, error)

	// ListMessages returns the room's messages ordered oldest first.
	ListMessages(ctx context.Context, roomID string) ([]Message, error)

	// LatestActiveMessage returns the newest non-retracted message of the
	// room, or ErrNotFound when none remains.
	LatestActiveMessage(ctx context.Context, roomID string) (Message, error)

	// UpdateRoomSummary overwrites the room's lastMessage snapshot.
	// A nil last clears it.
	UpdateRoomSummary(ctx context.Context, roomID string, last *LastMessage) error

	// IncrementUnread adds one to identity's unread counter for the room.
	IncrementUnread(ctx context.Context, roomID, identity string) error

	// ResetUnread zeroes identity's unread counter for the room.
	ResetUnread(ctx context.Context, roomID, identity string) error

	// IsActiveFriendship reports whether the pair has an accepted,
	// still-active friendship.
	IsActiveFriendship(ctx context.Context, identityA, identityB string) (bool, error)

	// SetLastSeen records identity's last-seen timestamp and flips the
	// stored status to offline.
	SetLastSeen(ctx context.Context, identity string, ts time.Time) error

	// SetOnline flips identity's stored status to online.
	SetOnline(ctx context.Context, identity string) error

	// GetUserProfile resolves the public profile for identity.
	GetUserProfile(ctx context.Context, identity string) (user.User, error)
}
