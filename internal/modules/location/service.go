// README: Location service records samples and maintains the last-known cache.
package location

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"wander/internal/logger"
	"wander/internal/modules/trip"
	"wander/internal/types"
)

// Storage persists immutable samples.
type Storage interface {
	Insert(ctx context.Context, s *Sample) error
	Recent(ctx context.Context, user types.ID, tripID *types.ID, limit int) ([]*Sample, error)
	TripRoute(ctx context.Context, tripID types.ID) ([]*Sample, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	MostRecentPerUser(ctx context.Context, users []types.ID, since time.Time) ([]*Sample, error)
}

// Cache is the mutable last-known-location projection other components read.
type Cache interface {
	SetLastKnown(ctx context.Context, user types.ID, pos types.Point, at time.Time) error
	LastKnown(ctx context.Context, user types.ID) (types.Point, time.Time, bool, error)
}

// TripResolver finds the user's currently active trip.
type TripResolver interface {
	ActiveTrip(ctx context.Context, user types.ID) (*trip.Trip, error)
}

type Service struct {
	store Storage
	cache Cache
	trips TripResolver
	log   logger.ILogger
}

func NewService(store Storage, cache Cache, trips TripResolver, log logger.ILogger) *Service {
	return &Service{store: store, cache: cache, trips: trips, log: log}
}

type RecordCommand struct {
	UserID       types.ID
	Position     types.Point
	Accuracy     *float64
	Altitude     *float64
	Speed        *float64
	Heading      *float64
	IsBackground bool
	BatteryLevel *int
	// RecordedAt defaults to now when zero.
	RecordedAt time.Time
}

// Record validates and persists one location sample, associates it with the
// user's active trip when present, and refreshes the last-known cache.
func (s *Service) Record(ctx context.Context, cmd RecordCommand) (*Sample, error) {
	if cmd.UserID == "" {
		return nil, ErrBadRequest
	}
	if !cmd.Position.Valid() {
		return nil, ErrBadCoords
	}

	recordedAt := cmd.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	var tripID *types.ID
	if s.trips != nil {
		active, err := s.trips.ActiveTrip(ctx, cmd.UserID)
		switch {
		case err == nil:
			tripID = &active.ID
		case errors.Is(err, trip.ErrNotFound):
			// No active trip: the sample is recorded unassociated.
		default:
			return nil, err
		}
	}

	sample := &Sample{
		ID:           types.ID(uuid.NewString()),
		UserID:       cmd.UserID,
		TripID:       tripID,
		Position:     cmd.Position,
		Accuracy:     cmd.Accuracy,
		Altitude:     cmd.Altitude,
		Speed:        cmd.Speed,
		Heading:      cmd.Heading,
		IsBackground: cmd.IsBackground,
		BatteryLevel: cmd.BatteryLevel,
		RecordedAt:   recordedAt,
		ReceivedAt:   time.Now(),
	}
	if err := s.store.Insert(ctx, sample); err != nil {
		return nil, err
	}

	if err := s.cache.SetLastKnown(ctx, cmd.UserID, cmd.Position, recordedAt); err != nil {
		// The sample itself is durable; a stale cache self-heals on the
		// next update.
		s.log.Warning("last-known cache write failed",
			logger.String("user_id", string(cmd.UserID)), logger.Error(err))
	}

	return sample, nil
}

// Recent returns the newest samples for a user, optionally scoped to a trip.
func (s *Service) Recent(ctx context.Context, user types.ID, tripID *types.ID, limit int) ([]*Sample, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.store.Recent(ctx, user, tripID, limit)
}

// TripRoute returns a trip's samples in chronological order.
func (s *Service) TripRoute(ctx context.Context, tripID types.ID) ([]*Sample, error) {
	return s.store.TripRoute(ctx, tripID)
}

// CleanupOld deletes samples older than the given number of days.
func (s *Service) CleanupOld(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		days = 90
	}
	return s.store.DeleteOlderThan(ctx, time.Now().AddDate(0, 0, -days))
}

// RunCleanupScheduler prunes old samples once a day until ctx is cancelled.
func (s *Service) RunCleanupScheduler(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.CleanupOld(ctx, 0)
			if err != nil {
				s.log.Warning("sample cleanup failed", logger.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("old samples removed", logger.Int("count", n))
			}
		}
	}
}
