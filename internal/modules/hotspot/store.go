// README: Hotspot store backed by PostgreSQL.
package hotspot

import (
	"context"
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

const hotspotColumns = `
	id, latitude, longitude, place_name, related_place_id,
	user_count, active_users, first_detected, last_activity, expires_at`

func (s *Store) Create(ctx context.Context, h *Hotspot) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO activity_hotspots (
			id, latitude, longitude, place_name, related_place_id,
			user_count, active_users, first_detected, last_activity, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(h.ID), h.Center.Lat, h.Center.Lng, h.PlaceName, h.RelatedPlaceID,
		h.UserCount, idStrings(h.ActiveUsers), h.FirstDetected, h.LastActivity, h.ExpiresAt,
	)
	return err
}

// Refresh overwrites a hotspot's activity data after a new cluster scan.
func (s *Store) Refresh(ctx context.Context, h *Hotspot) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE activity_hotspots SET
			place_name = $1, related_place_id = $2,
			user_count = $3, active_users = $4,
			last_activity = $5, expires_at = $6
		WHERE id = $7`,
		h.PlaceName, h.RelatedPlaceID,
		h.UserCount, idStrings(h.ActiveUsers),
		h.LastActivity, h.ExpiresAt,
		string(h.ID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns hotspots that have not expired at the given time,
// most recent activity first.
func (s *Store) ListActive(ctx context.Context, now time.Time) ([]Hotspot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+hotspotColumns+`
		FROM activity_hotspots
		WHERE expires_at >= $1
		ORDER BY last_activity DESC`,
		now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHotspots(rows)
}

// DeleteExpired removes hotspots whose expiry has passed.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM activity_hotspots WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanHotspots(rows pgx.Rows) ([]Hotspot, error) {
	var out []Hotspot
	for rows.Next() {
		var h Hotspot
		var users []string
		err := rows.Scan(
			&h.ID, &h.Center.Lat, &h.Center.Lng, &h.PlaceName, &h.RelatedPlaceID,
			&h.UserCount, &users, &h.FirstDetected, &h.LastActivity, &h.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}
		h.ActiveUsers = make([]types.ID, len(users))
		for i, u := range users {
			h.ActiveUsers[i] = types.ID(u)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func idStrings(ids []types.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
