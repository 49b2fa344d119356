// README: Match store backed by PostgreSQL with optimistic status locking.
package match

import (
	"context"
	"database/sql"
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

const matchColumns = `
	m.id, m.trip_id, t.user_id, m.matched_user_id, m.matched_trip_id,
	m.score, m.common_interests, m.distance_km,
	m.current_distance_km, m.last_distance_update, m.is_proximity_expired,
	m.status, m.status_version, m.created_at, m.updated_at`

func (s *Store) Create(ctx context.Context, m *TripMatch) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trip_matches (
			id, trip_id, matched_user_id, matched_trip_id,
			score, common_interests, distance_km,
			status, status_version, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, 0, $9
		)
		ON CONFLICT (trip_id, matched_user_id) DO NOTHING`,
		string(m.ID), string(m.TripID), string(m.MatchedUserID), toStringPtr(m.MatchedTripID),
		m.Score, m.CommonInterests, m.DistanceKm,
		string(m.Status), m.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*TripMatch, error) {
	row := s.db.QueryRow(ctx, `
		SELECT`+matchColumns+`
		FROM trip_matches m JOIN trips t ON t.id = m.trip_id
		WHERE m.id = $1`, string(id))
	return scanMatch(row)
}

func (s *Store) DeletePending(ctx context.Context, tripID types.ID) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM trip_matches WHERE trip_id = $1 AND status = 'pending'`,
		string(tripID))
	return err
}

func (s *Store) ListByUser(ctx context.Context, user types.ID) ([]*TripMatch, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+matchColumns+`
		FROM trip_matches m JOIN trips t ON t.id = m.trip_id
		WHERE t.user_id = $1 OR m.matched_user_id = $1
		ORDER BY m.score DESC, m.created_at DESC`,
		string(user))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMatches(rows)
}

func (s *Store) PendingInvolving(ctx context.Context, user types.ID) ([]*TripMatch, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+matchColumns+`
		FROM trip_matches m JOIN trips t ON t.id = m.trip_id
		WHERE (t.user_id = $1 OR m.matched_user_id = $1)
		  AND m.status = 'pending'
		  AND m.is_proximity_expired = FALSE`,
		string(user))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMatches(rows)
}

func (s *Store) UpdateDistance(ctx context.Context, id types.ID, distanceKm float64, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE trip_matches
		SET current_distance_km = $1, last_distance_update = $2, updated_at = NOW()
		WHERE id = $3`,
		distanceKm, at, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, expire bool) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trip_matches
		SET status = $1,
		    status_version = status_version + 1,
		    is_proximity_expired = is_proximity_expired OR $2,
		    updated_at = NOW()
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to), expire, string(id), string(from), version)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) NearbyPending(ctx context.Context, user types.ID, maxKm float64) ([]*TripMatch, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+matchColumns+`
		FROM trip_matches m JOIN trips t ON t.id = m.trip_id
		WHERE (t.user_id = $1 OR m.matched_user_id = $1)
		  AND m.status = 'pending'
		  AND m.is_proximity_expired = FALSE
		  AND m.current_distance_km IS NOT NULL
		  AND m.current_distance_km <= $2
		ORDER BY m.current_distance_km ASC`,
		string(user), maxKm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMatches(rows)
}

func (s *Store) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM trip_matches
		WHERE is_proximity_expired = TRUE AND updated_at < $1`,
		cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanMatch(row pgx.Row) (*TripMatch, error) {
	var m TripMatch
	var matchedTrip sql.NullString
	var distanceKm, currentDistance sql.NullFloat64
	var lastUpdate sql.NullTime

	err := row.Scan(
		&m.ID, &m.TripID, &m.TripUserID, &m.MatchedUserID, &matchedTrip,
		&m.Score, &m.CommonInterests, &distanceKm,
		&currentDistance, &lastUpdate, &m.IsProximityExpired,
		&m.Status, &m.StatusVersion, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if matchedTrip.Valid {
		id := types.ID(matchedTrip.String)
		m.MatchedTripID = &id
	}
	if distanceKm.Valid {
		v := distanceKm.Float64
		m.DistanceKm = &v
	}
	if currentDistance.Valid {
		v := currentDistance.Float64
		m.CurrentDistanceKm = &v
	}
	if lastUpdate.Valid {
		t := lastUpdate.Time
		m.LastDistanceUpdate = &t
	}
	return &m, nil
}

func scanMatches(rows pgx.Rows) ([]*TripMatch, error) {
	var out []*TripMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
