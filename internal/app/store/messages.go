package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aryankinha/chattingAPP/internal/app/chat"
	"github.com/aryankinha/chattingAPP/internal/pkg/randx"
)

const messageColumns = `id, room_id, sender_id, body, attachment, read_by, retracted, created_at`

func scanMessage(row pgx.Row) (chat.Message, error) {
	var msg chat.Message
	err := row.Scan(&msg.ID, &msg.RoomID, &msg.Sender, &msg.Text, &msg.Attachment, &msg.ReadBy, &msg.Retracted, &msg.CreatedAt)
	if err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

// AppendMessage persists a new message. The sender is the only initial
// reader.
func (s *Store) AppendMessage(ctx context.Context, roomID, sender, text, attachment string) (chat.Message, error) {
	query := `INSERT INTO messages (id, room_id, sender_id, body, attachment, read_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + messageColumns

	row := s.pool.QueryRow(ctx, query, randx.MessageID(), roomID, sender, text, attachment, []string{sender})

	msg, err := scanMessage(row)
	if err != nil {
		return chat.Message{}, fmt.Errorf("failed to append message: %w", err)
	}

	return msg, nil
}

// GetMessage returns the message by id.
func (s *Store) GetMessage(ctx context.Context, messageID string) (chat.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.Message{}, chat.ErrNotFound
		}
		return chat.Message{}, fmt.Errorf("failed to get message: %w", err)
	}

	return msg, nil
}

// RetractMessage replaces the message body with the tombstone text and drops
// the attachment. It only touches messages that are not already retracted,
// so a repeated retraction surfaces as chat.ErrNotFound.
func (s *Store) RetractMessage(ctx context.Context, messageID, replacement string) (chat.Message, error) {
	query := `UPDATE messages
		SET body = $2, attachment = '', retracted = TRUE
		WHERE id = $1 AND retracted = FALSE
		RETURNING ` + messageColumns

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, messageID, replacement))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.Message{}, chat.ErrNotFound
		}
		return chat.Message{}, fmt.Errorf("failed to retract message: %w", err)
	}

	return msg, nil
}

// ListMessages returns the room's messages ordered oldest first.
func (s *Store) ListMessages(ctx context.Context, roomID string) ([]chat.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE room_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var result []chat.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return result, nil
}

// LatestActiveMessage returns the newest non-retracted message of the room.
func (s *Store) LatestActiveMessage(ctx context.Context, roomID string) (chat.Message, error) {
	query := `SELECT ` + messageColumns + `
		FROM messages
		WHERE room_id = $1 AND retracted = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.Message{}, chat.ErrNotFound
		}
		return chat.Message{}, fmt.Errorf("failed to get latest active message: %w", err)
	}

	return msg, nil
}
