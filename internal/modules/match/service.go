// README: Match service finds, persists, and resolves companion matches.
package match

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"wander/internal/logger"
	"wander/internal/modules/trip"
	"wander/internal/types"
)

// Storage is the persistence contract for trip matches.
type Storage interface {
	Create(ctx context.Context, m *TripMatch) error
	Get(ctx context.Context, id types.ID) (*TripMatch, error)
	DeletePending(ctx context.Context, tripID types.ID) error
	ListByUser(ctx context.Context, user types.ID) ([]*TripMatch, error)
	// PendingInvolving returns pending, non-proximity-expired matches where
	// the user is either the trip owner or the matched user.
	PendingInvolving(ctx context.Context, user types.ID) ([]*TripMatch, error)
	UpdateDistance(ctx context.Context, id types.ID, distanceKm float64, at time.Time) error
	// UpdateStatus is a compare-and-swap on (status, status_version);
	// returns false when the row moved underneath the caller.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, expire bool) (bool, error)
	NearbyPending(ctx context.Context, user types.ID, maxKm float64) ([]*TripMatch, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// TripDirectory is the slice of the trip module the matcher needs.
type TripDirectory interface {
	Get(ctx context.Context, id types.ID) (*trip.Trip, error)
	Candidates(ctx context.Context, t *trip.Trip, friendIDs []types.ID) ([]*trip.Trip, error)
	IncrementCompanions(ctx context.Context, id types.ID) error
}

// FriendGraph answers friendship queries; backed by the social store.
type FriendGraph interface {
	AreFriends(ctx context.Context, a, b types.ID) (bool, error)
	FriendsOf(ctx context.Context, user types.ID) ([]types.ID, error)
}

type Service struct {
	store   Storage
	trips   TripDirectory
	friends FriendGraph
	log     logger.ILogger
}

func NewService(store Storage, trips TripDirectory, friends FriendGraph, log logger.ILogger) *Service {
	return &Service{store: store, trips: trips, friends: friends, log: log}
}

// FindMatches recomputes companion matches for a trip from scratch.
// All qualifying matches are persisted; only the top `limit` are returned.
func (s *Service) FindMatches(ctx context.Context, t *trip.Trip, limit int) ([]*TripMatch, error) {
	if limit <= 0 {
		limit = 10
	}

	// Re-running always starts clean: drop previous pending matches.
	if err := s.store.DeletePending(ctx, t.ID); err != nil {
		return nil, err
	}

	friendIDs, err := s.friends.FriendsOf(ctx, t.UserID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.trips.Candidates(ctx, t, friendIDs)
	if err != nil {
		return nil, err
	}

	// One match per candidate owner: when a user has several overlapping
	// candidate trips, the highest-scoring one wins.
	best := make(map[types.ID]*TripMatch)
	for _, candidate := range candidates {
		score, bd := Score(t, candidate)
		if score < ScoreThreshold {
			continue
		}

		matchedTrip := candidate.ID
		m := &TripMatch{
			ID:              types.ID(uuid.NewString()),
			TripID:          t.ID,
			TripUserID:      t.UserID,
			MatchedUserID:   candidate.UserID,
			MatchedTripID:   &matchedTrip,
			Score:           score,
			CommonInterests: bd.CommonInterests,
			DistanceKm:      bd.DistanceKm,
			Status:          StatusPending,
			CreatedAt:       time.Now(),
		}
		if prev, ok := best[candidate.UserID]; !ok || m.Score > prev.Score {
			best[candidate.UserID] = m
		}
	}

	matches := make([]*TripMatch, 0, len(best))
	for _, m := range best {
		if err := s.store.Create(ctx, m); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// FindForTrip resolves the trip and runs FindMatches; it satisfies
// trip.MatchFinder for the trip-start hook.
func (s *Service) FindForTrip(ctx context.Context, tripID types.ID, limit int) (int, error) {
	t, err := s.trips.Get(ctx, tripID)
	if err != nil {
		return 0, err
	}
	matches, err := s.FindMatches(ctx, t, limit)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// Accept moves a pending match to accepted and bumps the trip's companion
// count. Only the source trip's owner may accept.
func (s *Service) Accept(ctx context.Context, matchID, userID types.ID) (*TripMatch, error) {
	m, err := s.resolvePending(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, m, StatusAccepted); err != nil {
		return nil, err
	}
	m.Status = StatusAccepted
	if err := s.trips.IncrementCompanions(ctx, m.TripID); err != nil {
		s.log.Warning("companion count update failed",
			logger.String("trip_id", string(m.TripID)), logger.Error(err))
	}
	return m, nil
}

// Reject moves a pending match to rejected.
func (s *Service) Reject(ctx context.Context, matchID, userID types.ID) (*TripMatch, error) {
	m, err := s.resolvePending(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, m, StatusRejected); err != nil {
		return nil, err
	}
	m.Status = StatusRejected
	return m, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*TripMatch, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, user types.ID) ([]*TripMatch, error) {
	return s.store.ListByUser(ctx, user)
}

func (s *Service) resolvePending(ctx context.Context, matchID, userID types.ID) (*TripMatch, error) {
	m, err := s.store.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.TripUserID != userID {
		return nil, ErrNotFound
	}
	if m.Status != StatusPending {
		return nil, ErrConflict
	}
	return m, nil
}

// transition applies the optimistic status CAS; on conflict it refreshes the
// row and retries once before surfacing ErrConflict.
func (s *Service) transition(ctx context.Context, m *TripMatch, to Status) error {
	ok, err := s.store.UpdateStatus(ctx, m.ID, StatusPending, to, m.StatusVersion, false)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	fresh, err := s.store.Get(ctx, m.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrConflict
		}
		return err
	}
	if fresh.Status != StatusPending {
		return ErrConflict
	}
	ok, err = s.store.UpdateStatus(ctx, m.ID, StatusPending, to, fresh.StatusVersion, false)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
