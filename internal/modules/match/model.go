// README: Trip match aggregate, status definitions, and proximity thresholds.
package match

import (
	"errors"
	"time"

	"wander/internal/types"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

var (
	ErrNotFound   = errors.New("match not found")
	ErrConflict   = errors.New("match state conflict")
	ErrBadRequest = errors.New("bad request")
)

const (
	// ScoreThreshold is the minimum compatibility score for a match to be
	// persisted. Policy constant, not configurable per call.
	ScoreThreshold = 30.0
	// MaxDestDistanceKm caps the destination-distance component of scoring.
	MaxDestDistanceKm = 5.0

	// CloseProximityKm flags matched users as very close (500m).
	CloseProximityKm = 0.5
	// NearbyThresholdKm is the informational "still nearby" radius.
	NearbyThresholdKm = 2.0
	// AutoExpireKm rejects a pending match once live distance exceeds it.
	// The boundary is exclusive: exactly 5.0km does not expire.
	AutoExpireKm = 5.0

	// expiredRetentionDays is how long proximity-expired rows are kept
	// before the cleanup pass deletes them.
	expiredRetentionDays = 7
)

type TripMatch struct {
	ID     types.ID
	TripID types.ID
	// TripUserID is the owner of the source trip, resolved on read.
	TripUserID    types.ID
	MatchedUserID types.ID
	MatchedTripID *types.ID

	Score           float64
	CommonInterests []string
	// DistanceKm is the static destination distance captured at match time.
	DistanceKm *float64

	// Live proximity tracking.
	CurrentDistanceKm  *float64
	LastDistanceUpdate *time.Time
	IsProximityExpired bool

	Status        Status
	StatusVersion int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OtherParty returns the user on the opposite side of the match from u.
func (m *TripMatch) OtherParty(u types.ID) types.ID {
	if m.TripUserID == u {
		return m.MatchedUserID
	}
	return m.TripUserID
}
