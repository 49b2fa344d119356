// README: Location sample store backed by PostgreSQL.
package location

import (
	"context"
	"database/sql"
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

const sampleColumns = `
	id, user_id, trip_id, latitude, longitude,
	accuracy, altitude, speed, heading,
	is_background, battery_level, recorded_at, created_at`

func (s *Store) Insert(ctx context.Context, sm *Sample) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO location_samples (
			id, user_id, trip_id, latitude, longitude,
			accuracy, altitude, speed, heading,
			is_background, battery_level, recorded_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13
		)`,
		string(sm.ID), string(sm.UserID), toStringPtr(sm.TripID),
		sm.Position.Lat, sm.Position.Lng,
		sm.Accuracy, sm.Altitude, sm.Speed, sm.Heading,
		sm.IsBackground, sm.BatteryLevel, sm.RecordedAt, sm.ReceivedAt,
	)
	return err
}

func (s *Store) Recent(ctx context.Context, user types.ID, tripID *types.ID, limit int) ([]*Sample, error) {
	query := `SELECT` + sampleColumns + `
		FROM location_samples
		WHERE user_id = $1 AND ($2::text IS NULL OR trip_id = $2)
		ORDER BY recorded_at DESC LIMIT $3`
	rows, err := s.db.Query(ctx, query, string(user), toStringPtr(tripID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSamples(rows)
}

func (s *Store) TripRoute(ctx context.Context, tripID types.ID) ([]*Sample, error) {
	rows, err := s.db.Query(ctx,
		`SELECT`+sampleColumns+` FROM location_samples WHERE trip_id = $1 ORDER BY recorded_at ASC`,
		string(tripID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSamples(rows)
}

func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM location_samples WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// MostRecentPerUser returns each listed user's newest sample since the given
// time. Users without a recent sample are absent from the result.
func (s *Store) MostRecentPerUser(ctx context.Context, users []types.ID, since time.Time) ([]*Sample, error) {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = string(u)
	}
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT ON (user_id)`+sampleColumns+`
		FROM location_samples
		WHERE user_id = ANY($1) AND recorded_at >= $2
		ORDER BY user_id, recorded_at DESC`,
		ids, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSamples(rows)
}

func scanSamples(rows pgx.Rows) ([]*Sample, error) {
	var out []*Sample
	for rows.Next() {
		var sm Sample
		var tripID sql.NullString
		var battery sql.NullInt64

		err := rows.Scan(
			&sm.ID, &sm.UserID, &tripID, &sm.Position.Lat, &sm.Position.Lng,
			&sm.Accuracy, &sm.Altitude, &sm.Speed, &sm.Heading,
			&sm.IsBackground, &battery, &sm.RecordedAt, &sm.ReceivedAt,
		)
		if err != nil {
			return nil, err
		}
		if tripID.Valid {
			id := types.ID(tripID.String)
			sm.TripID = &id
		}
		if battery.Valid {
			b := int(battery.Int64)
			sm.BatteryLevel = &b
		}
		out = append(out, &sm)
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
