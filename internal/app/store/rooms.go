package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aryankinha/chattingAPP/internal/app/chat"
	"github.com/aryankinha/chattingAPP/internal/pkg/randx"
)

const roomColumns = `id, participant_a, participant_b, last_message_text, last_message_sender, last_message_at, created_at`

func scanRoom(row pgx.Row) (chat.Room, error) {
	var (
		room       chat.Room
		lastText   *string
		lastSender *string
		lastAt     *time.Time
	)

	err := row.Scan(&room.ID, &room.Participants[0], &room.Participants[1], &lastText, &lastSender, &lastAt, &room.CreatedAt)
	if err != nil {
		return chat.Room{}, err
	}

	if lastText != nil && lastSender != nil && lastAt != nil {
		room.LastMessage = &chat.LastMessage{
			Text:      *lastText,
			Sender:    *lastSender,
			CreatedAt: *lastAt,
		}
	}

	return room, nil
}

// FindRoomsForParticipant returns every room the identity participates in,
// newest activity first, with unread counters attached.
func (s *Store) FindRoomsForParticipant(ctx context.Context, identity string) ([]chat.Room, error) {
	query := `SELECT ` + roomColumns + `
		FROM rooms
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_message_at DESC NULLS LAST, created_at DESC`

	rows, err := s.pool.Query(ctx, query, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var result []chat.Room
	ids := make([]string, 0, 8)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		result = append(result, room)
		ids = append(ids, room.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}

	if len(result) == 0 {
		return result, nil
	}

	unread, err := s.unreadForRooms(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].UnreadCounts = unread[result[i].ID]
	}

	return result, nil
}

func (s *Store) unreadForRooms(ctx context.Context, roomIDs []string) (map[string]map[string]int, error) {
	query := `SELECT room_id, user_id, unread FROM room_unread WHERE room_id = ANY($1)`

	rows, err := s.pool.Query(ctx, query, roomIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query unread counters: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]map[string]int, len(roomIDs))
	for rows.Next() {
		var roomID, userID string
		var unread int
		if err := rows.Scan(&roomID, &userID, &unread); err != nil {
			return nil, fmt.Errorf("failed to scan unread counter: %w", err)
		}
		if counts[roomID] == nil {
			counts[roomID] = make(map[string]int, 2)
		}
		counts[roomID][userID] = unread
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unread counters: %w", err)
	}

	return counts, nil
}

// CreateOrGetRoom returns the room for the pair, creating it on first use.
// The room id is deterministic for the pair, so the insert is idempotent.
func (s *Store) CreateOrGetRoom(ctx context.Context, identityA, identityB string) (chat.Room, error) {
	// The participant columns come from the input pair, never from splitting
	// the id: identities may contain the separator themselves.
	first, second := randx.Participants(identityA, identityB)
	roomID := randx.RoomID(identityA, identityB)

	insert := `INSERT INTO rooms (id, participant_a, participant_b)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, insert, roomID, first, second); err != nil {
		return chat.Room{}, fmt.Errorf("failed to create room: %w", err)
	}

	seed := `INSERT INTO room_unread (room_id, user_id, unread)
		VALUES ($1, $2, 0), ($1, $3, 0)
		ON CONFLICT (room_id, user_id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, seed, roomID, first, second); err != nil {
		return chat.Room{}, fmt.Errorf("failed to seed unread counters: %w", err)
	}

	return s.GetRoom(ctx, roomID)
}

// GetRoom returns the room by id, with unread counters attached.
func (s *Store) GetRoom(ctx context.Context, roomID string) (chat.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	room, err := scanRoom(s.pool.QueryRow(ctx, query, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.Room{}, chat.ErrNotFound
		}
		return chat.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	unread, err := s.unreadForRooms(ctx, []string{roomID})
	if err != nil {
		return chat.Room{}, err
	}
	room.UnreadCounts = unread[roomID]

	return room, nil
}

// UpdateRoomSummary overwrites the room's lastMessage snapshot. A nil last
// clears it back to the empty-room state.
func (s *Store) UpdateRoomSummary(ctx context.Context, roomID string, last *chat.LastMessage) error {
	var (
		text, sender *string
		at           *time.Time
	)
	if last != nil {
		text, sender, at = &last.Text, &last.Sender, &last.CreatedAt
	}

	query := `UPDATE rooms
		SET last_message_text = $2, last_message_sender = $3, last_message_at = $4
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, roomID, text, sender, at)
	if err != nil {
		return fmt.Errorf("failed to update room summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return chat.ErrNotFound
	}

	return nil
}

// IncrementUnread adds one to identity's unread counter for the room.
func (s *Store) IncrementUnread(ctx context.Context, roomID, identity string) error {
	query := `INSERT INTO room_unread (room_id, user_id, unread)
		VALUES ($1, $2, 1)
		ON CONFLICT (room_id, user_id) DO UPDATE SET unread = room_unread.unread + 1`

	if _, err := s.pool.Exec(ctx, query, roomID, identity); err != nil {
		return fmt.Errorf("failed to increment unread counter: %w", err)
	}

	return nil
}

// ResetUnread zeroes identity's unread counter for the room.
func (s *Store) ResetUnread(ctx context.Context, roomID, identity string) error {
	query := `INSERT INTO room_unread (room_id, user_id, unread)
		VALUES ($1, $2, 0)
		ON CONFLICT (room_id, user_id) DO UPDATE SET unread = 0`

	if _, err := s.pool.Exec(ctx, query, roomID, identity); err != nil {
		return fmt.Errorf("failed to reset unread counter: %w", err)
	}

	return nil
}
