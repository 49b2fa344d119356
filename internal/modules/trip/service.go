// README: Trip service implements CRUD, lifecycle transitions, and active-trip resolution.
package trip

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wander/internal/logger"
	"wander/internal/types"
)

// Storage is the persistence contract the service depends on.
type Storage interface {
	Create(ctx context.Context, t *Trip) error
	Get(ctx context.Context, id types.ID) (*Trip, error)
	Update(ctx context.Context, t *Trip) error
	Delete(ctx context.Context, id types.ID) error
	ListByUser(ctx context.Context, user types.ID) ([]*Trip, error)
	SetActive(ctx context.Context, id types.ID, active bool) error
	// ActiveTrip returns the user's active trip covering today, preferring
	// the most recently started when several overlap.
	ActiveTrip(ctx context.Context, user types.ID, today time.Time) (*Trip, error)
}

// MatchFinder recomputes companion matches for a trip. Implemented by the
// match module; declared here to keep the dependency one-way.
type MatchFinder interface {
	FindForTrip(ctx context.Context, tripID types.ID, limit int) (int, error)
}

// LocationCache reads a user's last known position, used to auto-fill a new
// trip's origin.
type LocationCache interface {
	LastKnown(ctx context.Context, user types.ID) (types.Point, time.Time, bool, error)
}

// startMatchLimit is how many matches are computed when a trip starts.
const startMatchLimit = 20

type Service struct {
	store   Storage
	finder  MatchFinder
	lastLoc LocationCache
	log     logger.ILogger
}

func NewService(store Storage, finder MatchFinder, lastLoc LocationCache, log logger.ILogger) *Service {
	return &Service{store: store, finder: finder, lastLoc: lastLoc, log: log}
}

type CreateCommand struct {
	UserID         types.ID
	Destination    string
	DestinationLat *float64
	DestinationLng *float64
	StartDate      time.Time
	EndDate        time.Time
	Interests      []string
	Description    string
	MaxCompanions  int
	Privacy        Privacy
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Trip, error) {
	if cmd.UserID == "" || cmd.Destination == "" {
		return nil, ErrBadRequest
	}
	if cmd.StartDate.After(cmd.EndDate) {
		return nil, ErrBadDates
	}
	if err := validateOptionalCoords(cmd.DestinationLat, cmd.DestinationLng); err != nil {
		return nil, err
	}

	t := &Trip{
		ID:             types.ID(uuid.NewString()),
		UserID:         cmd.UserID,
		Origin:         "Current Location",
		Destination:    cmd.Destination,
		DestinationLat: cmd.DestinationLat,
		DestinationLng: cmd.DestinationLng,
		StartDate:      dateOnly(cmd.StartDate),
		EndDate:        dateOnly(cmd.EndDate),
		Interests:      cmd.Interests,
		Description:    cmd.Description,
		MaxCompanions:  cmd.MaxCompanions,
		Privacy:        cmd.Privacy,
		CreatedAt:      time.Now(),
	}
	if t.Interests == nil {
		t.Interests = []string{}
	}
	if t.Privacy == "" {
		t.Privacy = PrivacyFriendsOnly
	}

	// Origin is auto-filled from the caller's last known position when
	// available; failures here never block trip creation.
	if s.lastLoc != nil {
		if pos, _, ok, err := s.lastLoc.LastKnown(ctx, cmd.UserID); err == nil && ok {
			t.OriginLat = &pos.Lat
			t.OriginLng = &pos.Lng
		}
	}

	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

type UpdateCommand struct {
	TripID         types.ID
	UserID         types.ID
	Origin         *string
	Destination    *string
	OriginLat      *float64
	OriginLng      *float64
	DestinationLat *float64
	DestinationLng *float64
	StartDate      *time.Time
	EndDate        *time.Time
	Interests      []string
	Description    *string
	MaxCompanions  *int
	Privacy        *Privacy
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Trip, error) {
	t, err := s.getOwned(ctx, cmd.TripID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	if cmd.Origin != nil {
		t.Origin = *cmd.Origin
	}
	if cmd.Destination != nil {
		t.Destination = *cmd.Destination
	}
	if cmd.OriginLat != nil {
		t.OriginLat = cmd.OriginLat
	}
	if cmd.OriginLng != nil {
		t.OriginLng = cmd.OriginLng
	}
	if cmd.DestinationLat != nil {
		t.DestinationLat = cmd.DestinationLat
	}
	if cmd.DestinationLng != nil {
		t.DestinationLng = cmd.DestinationLng
	}
	if cmd.StartDate != nil {
		t.StartDate = dateOnly(*cmd.StartDate)
	}
	if cmd.EndDate != nil {
		t.EndDate = dateOnly(*cmd.EndDate)
	}
	if cmd.Interests != nil {
		t.Interests = cmd.Interests
	}
	if cmd.Description != nil {
		t.Description = *cmd.Description
	}
	if cmd.MaxCompanions != nil {
		t.MaxCompanions = *cmd.MaxCompanions
	}
	if cmd.Privacy != nil {
		t.Privacy = *cmd.Privacy
	}

	if t.StartDate.After(t.EndDate) {
		return nil, ErrBadDates
	}
	if err := validateOptionalCoords(t.DestinationLat, t.DestinationLng); err != nil {
		return nil, err
	}
	if err := validateOptionalCoords(t.OriginLat, t.OriginLng); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes the trip; matches, location points, and suggestions cascade
// at the storage layer.
func (s *Service) Delete(ctx context.Context, tripID, userID types.ID) error {
	if _, err := s.getOwned(ctx, tripID, userID); err != nil {
		return err
	}
	return s.store.Delete(ctx, tripID)
}

// Start activates the trip and recomputes its companion matches.
// Returns the trip and the number of matches found.
func (s *Service) Start(ctx context.Context, tripID, userID types.ID) (*Trip, int, error) {
	t, err := s.getOwned(ctx, tripID, userID)
	if err != nil {
		return nil, 0, err
	}
	if t.IsActive {
		return t, 0, ErrActive
	}
	if err := s.store.SetActive(ctx, t.ID, true); err != nil {
		return nil, 0, err
	}
	t.IsActive = true

	found := 0
	if s.finder != nil {
		found, err = s.finder.FindForTrip(ctx, t.ID, startMatchLimit)
		if err != nil {
			// Matching is best-effort on start; the trip is already active.
			s.log.Warning("match finding on trip start failed",
				logger.String("trip_id", string(t.ID)), logger.Error(err))
			found = 0
		}
	}
	return t, found, nil
}

func (s *Service) End(ctx context.Context, tripID, userID types.ID) (*Trip, error) {
	t, err := s.getOwned(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return t, ErrInactive
	}
	if err := s.store.SetActive(ctx, t.ID, false); err != nil {
		return nil, err
	}
	t.IsActive = false
	return t, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, user types.ID) ([]*Trip, error) {
	return s.store.ListByUser(ctx, user)
}

// ActiveTrip resolves the user's currently active trip, or ErrNotFound.
func (s *Service) ActiveTrip(ctx context.Context, user types.ID) (*Trip, error) {
	return s.store.ActiveTrip(ctx, user, dateOnly(time.Now().UTC()))
}

func (s *Service) getOwned(ctx context.Context, tripID, userID types.ID) (*Trip, error) {
	t, err := s.store.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrNotFound
	}
	return t, nil
}

func validateOptionalCoords(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return ErrBadCoords
	}
	if !(types.Point{Lat: *lat, Lng: *lng}).Valid() {
		return ErrBadCoords
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
