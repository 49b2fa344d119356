// README: Suggestion lifecycle operations (list, read, dismiss, rate).
package suggestion

import (
	"context"
	"time"

	"wander/internal/logger"
	"wander/internal/types"
)

const defaultListLimit = 50

// Storage is the persistence contract for suggestions.
type Storage interface {
	Create(ctx context.Context, s *Suggestion) error
	Get(ctx context.Context, id types.ID) (*Suggestion, error)
	ListByUser(ctx context.Context, user types.ID, tripID *types.ID, unreadOnly bool, limit int) ([]Suggestion, error)

	// RecentForTrip returns suggestions created for the trip since the
	// given time, used for location-based dedup.
	RecentForTrip(ctx context.Context, user, tripID types.ID, since time.Time) ([]Suggestion, error)

	// HasRecentOfType reports whether a suggestion of the given type and
	// related place already exists since the given time.
	HasRecentOfType(ctx context.Context, user, tripID types.ID, sugType string, relatedPlaceID *string, since time.Time) (bool, error)

	MarkRead(ctx context.Context, id types.ID, at time.Time) error
	Dismiss(ctx context.Context, id types.ID) error
	SetRating(ctx context.Context, id types.ID, rating int) error
	MarkActedUpon(ctx context.Context, id types.ID) error
}

type Service struct {
	store Storage
	log   logger.ILogger
}

func NewService(store Storage, log logger.ILogger) *Service {
	return &Service{store: store, log: log}
}

// List returns a user's suggestions, newest first. tripID narrows to one
// trip when set.
func (s *Service) List(ctx context.Context, user types.ID, tripID *types.ID, unreadOnly bool, limit int) ([]Suggestion, error) {
	if user == "" {
		return nil, ErrBadRequest
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListByUser(ctx, user, tripID, unreadOnly, limit)
}

// MarkRead records that the user has seen the suggestion.
func (s *Service) MarkRead(ctx context.Context, user, id types.ID) error {
	if _, err := s.getOwned(ctx, user, id); err != nil {
		return err
	}
	return s.store.MarkRead(ctx, id, time.Now().UTC())
}

// Dismiss hides the suggestion from future listings.
func (s *Service) Dismiss(ctx context.Context, user, id types.ID) error {
	if _, err := s.getOwned(ctx, user, id); err != nil {
		return err
	}
	return s.store.Dismiss(ctx, id)
}

// Rate stores a 1-5 star rating.
func (s *Service) Rate(ctx context.Context, user, id types.ID, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrBadRating
	}
	if _, err := s.getOwned(ctx, user, id); err != nil {
		return err
	}
	return s.store.SetRating(ctx, id, rating)
}

// MarkActedUpon records that the user followed the suggestion.
func (s *Service) MarkActedUpon(ctx context.Context, user, id types.ID) error {
	if _, err := s.getOwned(ctx, user, id); err != nil {
		return err
	}
	return s.store.MarkActedUpon(ctx, id)
}

func (s *Service) getOwned(ctx context.Context, user, id types.ID) (*Suggestion, error) {
	if user == "" || id == "" {
		return nil, ErrBadRequest
	}
	sg, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sg.UserID != user {
		return nil, ErrNotFound
	}
	return sg, nil
}
