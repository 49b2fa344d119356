// README: Domain model for real-time activity hotspots.
package hotspot

import (
	"errors"
	"time"

	"wander/internal/types"
)

var ErrNotFound = errors.New("hotspot not found")

// Hotspot is a cluster of travelers detected at one location. It stays
// alive as long as fresh samples keep arriving, and expires otherwise.
type Hotspot struct {
	ID types.ID

	Center         types.Point
	PlaceName      string
	RelatedPlaceID *string

	UserCount   int
	ActiveUsers []types.ID

	FirstDetected time.Time
	LastActivity  time.Time
	ExpiresAt     time.Time
}

// cluster is an intermediate grouping of recent samples before it becomes
// (or refreshes) a hotspot.
type cluster struct {
	center         types.Point
	userCount      int
	userIDs        []types.ID
	placeName      string
	relatedPlaceID *string
}
