// README: Friend graph and user display names backed by Postgres.
package social

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"wander/internal/types"
)

// Store reads the users and friendships tables.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// AreFriends reports whether an accepted friendship links the two users,
// in either direction.
func (s *Store) AreFriends(ctx context.Context, a, b types.ID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE status = 'accepted'
			  AND ((user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1))
		)`
	var ok bool
	if err := s.db.QueryRow(ctx, q, string(a), string(b)).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking friendship: %w", err)
	}
	return ok, nil
}

// FriendsOf returns the accepted friends of a user.
func (s *Store) FriendsOf(ctx context.Context, user types.ID) ([]types.ID, error) {
	const q = `
		SELECT CASE WHEN user_id = $1 THEN friend_id ELSE user_id END
		FROM friendships
		WHERE status = 'accepted' AND (user_id = $1 OR friend_id = $1)`
	rows, err := s.db.Query(ctx, q, string(user))
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	var friends []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		friends = append(friends, types.ID(id))
	}
	return friends, rows.Err()
}

// DisplayName returns a user's preferred name, falling back to the local
// part of their email address.
func (s *Store) DisplayName(ctx context.Context, user types.ID) (string, error) {
	const q = `SELECT COALESCE(NULLIF(display_name, ''), email) FROM users WHERE id = $1`
	var name string
	if err := s.db.QueryRow(ctx, q, string(user)).Scan(&name); err != nil {
		return "", fmt.Errorf("looking up display name: %w", err)
	}
	return emailLocalPart(name), nil
}

// DisplayNames resolves names for a batch of users. Users with no row are
// absent from the result.
func (s *Store) DisplayNames(ctx context.Context, users []types.ID) (map[types.ID]string, error) {
	if len(users) == 0 {
		return map[types.ID]string{}, nil
	}

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = string(u)
	}

	const q = `SELECT id, COALESCE(NULLIF(display_name, ''), email) FROM users WHERE id = ANY($1)`
	rows, err := s.db.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("looking up display names: %w", err)
	}
	defer rows.Close()

	names := make(map[types.ID]string, len(users))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[types.ID(id)] = emailLocalPart(name)
	}
	return names, rows.Err()
}

// DeviceToken returns the user's registered FCM token, empty when none.
func (s *Store) DeviceToken(ctx context.Context, user types.ID) (string, error) {
	const q = `SELECT COALESCE(device_token, '') FROM users WHERE id = $1`
	var token string
	if err := s.db.QueryRow(ctx, q, string(user)).Scan(&token); err != nil {
		return "", fmt.Errorf("looking up device token: %w", err)
	}
	return token, nil
}

func emailLocalPart(s string) string {
	if i := strings.IndexByte(s, '@'); i > 0 {
		return s[:i]
	}
	return s
}
