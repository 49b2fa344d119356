// README: Trip store backed by PostgreSQL.
package trip

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

const tripColumns = `
	id, user_id, origin, destination,
	origin_lat, origin_lng, destination_lat, destination_lng,
	start_date, end_date, interests, description,
	max_companions, current_companions, is_active, privacy,
	created_at, updated_at`

func (s *Store) Create(ctx context.Context, t *Trip) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trips (
			id, user_id, origin, destination,
			origin_lat, origin_lng, destination_lat, destination_lng,
			start_date, end_date, interests, description,
			max_companions, current_companions, is_active, privacy, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16, $17
		)`,
		string(t.ID), string(t.UserID), t.Origin, t.Destination,
		t.OriginLat, t.OriginLng, t.DestinationLat, t.DestinationLng,
		t.StartDate, t.EndDate, t.Interests, t.Description,
		t.MaxCompanions, t.CurrentCompanions, t.IsActive, string(t.Privacy), t.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Trip, error) {
	row := s.db.QueryRow(ctx, `SELECT`+tripColumns+` FROM trips WHERE id = $1`, string(id))
	return scanTrip(row)
}

func (s *Store) Update(ctx context.Context, t *Trip) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips SET
			origin = $1, destination = $2,
			origin_lat = $3, origin_lng = $4,
			destination_lat = $5, destination_lng = $6,
			start_date = $7, end_date = $8,
			interests = $9, description = $10,
			max_companions = $11, privacy = $12,
			updated_at = NOW()
		WHERE id = $13`,
		t.Origin, t.Destination,
		t.OriginLat, t.OriginLng,
		t.DestinationLat, t.DestinationLng,
		t.StartDate, t.EndDate,
		t.Interests, t.Description,
		t.MaxCompanions, string(t.Privacy),
		string(t.ID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, user types.ID) ([]*Trip, error) {
	rows, err := s.db.Query(ctx,
		`SELECT`+tripColumns+` FROM trips WHERE user_id = $1 ORDER BY created_at DESC`,
		string(user))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrips(rows)
}

func (s *Store) SetActive(ctx context.Context, id types.ID, active bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE trips SET is_active = $1, updated_at = NOW() WHERE id = $2`,
		active, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ActiveTrip(ctx context.Context, user types.ID, today time.Time) (*Trip, error) {
	// Most recently started wins when several active trips cover today.
	row := s.db.QueryRow(ctx, `
		SELECT`+tripColumns+`
		FROM trips
		WHERE user_id = $1 AND is_active = TRUE
		  AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date DESC, created_at DESC
		LIMIT 1`,
		string(user), today)
	return scanTrip(row)
}

// Candidates returns trips visible to the given trip's owner whose date
// ranges overlap it: public trips, plus friends_only trips owned by one of
// friendIDs. The owner's own trips are excluded.
func (s *Store) Candidates(ctx context.Context, t *Trip, friendIDs []types.ID) ([]*Trip, error) {
	friends := make([]string, len(friendIDs))
	for i, id := range friendIDs {
		friends[i] = string(id)
	}
	rows, err := s.db.Query(ctx, `
		SELECT`+tripColumns+`
		FROM trips
		WHERE user_id != $1
		  AND start_date <= $2 AND end_date >= $3
		  AND (privacy = 'public' OR (privacy = 'friends_only' AND user_id = ANY($4)))`,
		string(t.UserID), t.EndDate, t.StartDate, friends)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrips(rows)
}

// ActiveTripUserIDs lists users with an active trip covering today, used by
// the hotspot detector.
func (s *Store) ActiveTripUserIDs(ctx context.Context, today time.Time) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT user_id FROM trips
		WHERE is_active = TRUE AND start_date <= $1 AND end_date >= $1`,
		today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, types.ID(id))
	}
	return ids, rows.Err()
}

// IncrementCompanions bumps the accepted-companion counter.
func (s *Store) IncrementCompanions(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE trips SET current_companions = current_companions + 1, updated_at = NOW() WHERE id = $1`,
		string(id))
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

func scanTrip(row rowScanner) (*Trip, error) {
	var t Trip
	var originLat, originLng, destLat, destLng sql.NullFloat64
	var updatedAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.UserID, &t.Origin, &t.Destination,
		&originLat, &originLng, &destLat, &destLng,
		&t.StartDate, &t.EndDate, &t.Interests, &t.Description,
		&t.MaxCompanions, &t.CurrentCompanions, &t.IsActive, &t.Privacy,
		&t.CreatedAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.OriginLat = toFloatPtr(originLat)
	t.OriginLng = toFloatPtr(originLng)
	t.DestinationLat = toFloatPtr(destLat)
	t.DestinationLng = toFloatPtr(destLng)
	if updatedAt.Valid {
		t.UpdatedAt = updatedAt.Time
	}
	return &t, nil
}

func scanTrips(rows pgx.Rows) ([]*Trip, error) {
	var out []*Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func toFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
