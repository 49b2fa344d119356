// README: Suggestion store backed by PostgreSQL.
package suggestion

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wander/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const suggestionColumns = `
	id, user_id, trip_id, suggestion_type, title, content,
	latitude, longitude, location_name, related_place_id,
	hotspot_user_count, hotspot_friend_names,
	is_read, read_at, is_acted_upon, user_rating, is_dismissed,
	created_at, updated_at`

func (s *Store) Create(ctx context.Context, sg *Suggestion) error {
	friendNames := sg.HotspotFriendNames
	if friendNames == nil {
		friendNames = []string{}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO trip_suggestions (
			id, user_id, trip_id, suggestion_type, title, content,
			latitude, longitude, location_name, related_place_id,
			hotspot_user_count, hotspot_friend_names, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13
		)`,
		string(sg.ID), string(sg.UserID), string(sg.TripID), sg.Type, sg.Title, sg.Content,
		sg.Position.Lat, sg.Position.Lng, sg.LocationName, sg.RelatedPlaceID,
		sg.HotspotUserCount, friendNames, sg.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Suggestion, error) {
	row := s.db.QueryRow(ctx,
		`SELECT`+suggestionColumns+` FROM trip_suggestions WHERE id = $1`, string(id))
	return scanSuggestion(row)
}

func (s *Store) ListByUser(ctx context.Context, user types.ID, tripID *types.ID, unreadOnly bool, limit int) ([]Suggestion, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+suggestionColumns+`
		FROM trip_suggestions
		WHERE user_id = $1
		  AND ($2::text IS NULL OR trip_id = $2)
		  AND (NOT $3::bool OR is_read = FALSE)
		  AND is_dismissed = FALSE
		ORDER BY created_at DESC
		LIMIT $4`,
		string(user), toStringPtr(tripID), unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSuggestions(rows)
}

func (s *Store) RecentForTrip(ctx context.Context, user, tripID types.ID, since time.Time) ([]Suggestion, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+suggestionColumns+`
		FROM trip_suggestions
		WHERE user_id = $1 AND trip_id = $2 AND created_at >= $3
		ORDER BY created_at DESC`,
		string(user), string(tripID), since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSuggestions(rows)
}

func (s *Store) HasRecentOfType(ctx context.Context, user, tripID types.ID, sugType string, relatedPlaceID *string, since time.Time) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM trip_suggestions
			WHERE user_id = $1 AND trip_id = $2 AND suggestion_type = $3
			  AND related_place_id IS NOT DISTINCT FROM $4
			  AND created_at >= $5
		)`
	var exists bool
	err := s.db.QueryRow(ctx, q, string(user), string(tripID), sugType, relatedPlaceID, since).Scan(&exists)
	return exists, err
}

func (s *Store) MarkRead(ctx context.Context, id types.ID, at time.Time) error {
	return s.exec(ctx,
		`UPDATE trip_suggestions SET is_read = TRUE, read_at = $1, updated_at = NOW() WHERE id = $2`,
		at, string(id))
}

func (s *Store) Dismiss(ctx context.Context, id types.ID) error {
	return s.exec(ctx,
		`UPDATE trip_suggestions SET is_dismissed = TRUE, updated_at = NOW() WHERE id = $1`,
		string(id))
}

func (s *Store) SetRating(ctx context.Context, id types.ID, rating int) error {
	return s.exec(ctx,
		`UPDATE trip_suggestions SET user_rating = $1, updated_at = NOW() WHERE id = $2`,
		rating, string(id))
}

func (s *Store) MarkActedUpon(ctx context.Context, id types.ID) error {
	return s.exec(ctx,
		`UPDATE trip_suggestions SET is_acted_upon = TRUE, updated_at = NOW() WHERE id = $1`,
		string(id))
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSuggestion(row rowScanner) (*Suggestion, error) {
	var sg Suggestion
	err := row.Scan(
		&sg.ID, &sg.UserID, &sg.TripID, &sg.Type, &sg.Title, &sg.Content,
		&sg.Position.Lat, &sg.Position.Lng, &sg.LocationName, &sg.RelatedPlaceID,
		&sg.HotspotUserCount, &sg.HotspotFriendNames,
		&sg.IsRead, &sg.ReadAt, &sg.IsActedUpon, &sg.UserRating, &sg.IsDismissed,
		&sg.CreatedAt, &sg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sg, nil
}

func scanSuggestions(rows pgx.Rows) ([]Suggestion, error) {
	var out []Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sg)
	}
	return out, rows.Err()
}

func toStringPtr(id *types.ID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
