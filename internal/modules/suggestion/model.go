// README: Domain model for contextual trip suggestions.
package suggestion

import (
	"errors"
	"time"

	"wander/internal/types"
)

// Suggestion types.
const (
	TypeActivity  = "activity"
	TypeFood      = "food"
	TypeSafety    = "safety"
	TypeCultural  = "cultural"
	TypeHiddenGem = "hidden_gem"
	TypeTiming    = "timing"
	TypeWarning   = "warning"
	TypeHotspot   = "activity_hotspot"
)

var (
	ErrNotFound   = errors.New("suggestion not found")
	ErrBadRequest = errors.New("invalid suggestion request")
	ErrBadRating  = errors.New("rating must be between 1 and 5")
)

// Suggestion is a tip surfaced to a traveler during an active trip, either
// generated by the AI engine or by the hotspot detector.
type Suggestion struct {
	ID     types.ID
	UserID types.ID
	TripID types.ID

	Type    string
	Title   string
	Content string

	// Position is where the traveler was when the suggestion was generated.
	Position       types.Point
	LocationName   string
	RelatedPlaceID *string

	// Hotspot-specific data, set only for TypeHotspot.
	HotspotUserCount   *int
	HotspotFriendNames []string

	IsRead      bool
	ReadAt      *time.Time
	IsActedUpon bool
	UserRating  *int
	IsDismissed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
