package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aryankinha/chattingAPP/internal/app/chat"
	"github.com/aryankinha/chattingAPP/internal/app/user"
)

// GetUserProfile resolves the public profile for identity.
func (s *Store) GetUserProfile(ctx context.Context, identity string) (user.User, error) {
	query := `SELECT id, name, email, avatar_url, status, last_seen FROM users WHERE id = $1`

	var profile user.User
	err := s.pool.QueryRow(ctx, query, identity).
		Scan(&profile.ID, &profile.Name, &profile.Email, &profile.Avatar, &profile.Status, &profile.LastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, chat.ErrNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user profile: %w", err)
	}

	return profile, nil
}

// SetOnline flips identity's stored status to online.
func (s *Store) SetOnline(ctx context.Context, identity string) error {
	query := `UPDATE users SET status = 'online' WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, identity); err != nil {
		return fmt.Errorf("failed to set user online: %w", err)
	}

	return nil
}

// SetLastSeen records identity's last-seen timestamp and flips the stored
// status back to offline.
func (s *Store) SetLastSeen(ctx context.Context, identity string, ts time.Time) error {
	query := `UPDATE users SET status = 'offline', last_seen = $2 WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, identity, ts); err != nil {
		return fmt.Errorf("failed to set last seen: %w", err)
	}

	return nil
}
