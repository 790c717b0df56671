package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aryankinha/chattingAPP/internal/app/chat"
	"github.com/aryankinha/chattingAPP/internal/app/db"
)

// IsActiveFriendship reports whether the pair has an accepted friendship,
// in either direction.
func (s *Store) IsActiveFriendship(ctx context.Context, identityA, identityB string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM friendships
		WHERE status = 'accepted'
		  AND ((requester_id = $1 AND recipient_id = $2) OR (requester_id = $2 AND recipient_id = $1))
	)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, identityA, identityB).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}

	return exists, nil
}

// CreateFriendRequest inserts a pending request for the pair. A pending or
// accepted record in either direction counts as a duplicate.
func (s *Store) CreateFriendRequest(ctx context.Context, requester, recipient string) (chat.FriendRequest, error) {
	existing := `SELECT EXISTS (
		SELECT 1 FROM friendships
		WHERE status IN ('pending', 'accepted')
		  AND ((requester_id = $1 AND recipient_id = $2) OR (requester_id = $2 AND recipient_id = $1))
	)`

	var exists bool
	if err := s.pool.QueryRow(ctx, existing, requester, recipient).Scan(&exists); err != nil {
		return chat.FriendRequest{}, fmt.Errorf("failed to check existing friendship: %w", err)
	}
	if exists {
		return chat.FriendRequest{}, chat.ErrDuplicate
	}

	insert := `INSERT INTO friendships (requester_id, recipient_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, requester_id, recipient_id, status, created_at`

	var request chat.FriendRequest
	err := s.pool.QueryRow(ctx, insert, requester, recipient).
		Scan(&request.ID, &request.Requester, &request.Recipient, &request.Status, &request.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return chat.FriendRequest{}, chat.ErrDuplicate
		}
		return chat.FriendRequest{}, fmt.Errorf("failed to create friend request: %w", err)
	}

	return request, nil
}

// AcceptFriendRequest flips a pending request addressed to recipient into
// accepted. A missing, already handled, or foreign request surfaces as
// chat.ErrNotFound.
func (s *Store) AcceptFriendRequest(ctx context.Context, requestID, recipient string) (chat.FriendRequest, error) {
	query := `UPDATE friendships
		SET status = 'accepted', responded_at = now()
		WHERE id = $1 AND recipient_id = $2 AND status = 'pending'
		RETURNING id, requester_id, recipient_id, status, created_at`

	var request chat.FriendRequest
	err := s.pool.QueryRow(ctx, query, requestID, recipient).
		Scan(&request.ID, &request.Requester, &request.Recipient, &request.Status, &request.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.FriendRequest{}, chat.ErrNotFound
		}
		return chat.FriendRequest{}, fmt.Errorf("failed to accept friend request: %w", err)
	}

	return request, nil
}
