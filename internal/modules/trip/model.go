// README: Trip aggregate used as the unit of companion matching.
package trip

import (
	"errors"
	"time"

	"wander/internal/types"
)

type Privacy string

const (
	PrivacyPublic      Privacy = "public"
	PrivacyFriendsOnly Privacy = "friends_only"
	PrivacyPrivate     Privacy = "private"
)

var (
	ErrNotFound   = errors.New("trip not found")
	ErrBadRequest = errors.New("bad request")
	ErrBadDates   = errors.New("start date must be before end date")
	ErrBadCoords  = errors.New("coordinates out of range")
	ErrActive     = errors.New("trip is already active")
	ErrInactive   = errors.New("trip is already inactive")
)

type Trip struct {
	ID     types.ID
	UserID types.ID

	Origin         string
	Destination    string
	OriginLat      *float64
	OriginLng      *float64
	DestinationLat *float64
	DestinationLng *float64

	// Dates are inclusive on both ends, normalized to midnight UTC.
	StartDate time.Time
	EndDate   time.Time

	Interests   []string
	Description string

	MaxCompanions     int
	CurrentCompanions int

	IsActive bool
	Privacy  Privacy

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DurationDays is the inclusive trip length: end - start + 1.
func (t *Trip) DurationDays() int {
	return int(t.EndDate.Sub(t.StartDate).Hours()/24) + 1
}

// HasDestinationCoords reports whether both destination coordinates are set.
func (t *Trip) HasDestinationCoords() bool {
	return t.DestinationLat != nil && t.DestinationLng != nil
}

// OverlapsDates reports whether the two trips' date ranges intersect.
func (t *Trip) OverlapsDates(other *Trip) bool {
	return !t.StartDate.After(other.EndDate) && !t.EndDate.Before(other.StartDate)
}
