// README: Catalog of significant places around a coordinate.
package places

import (
	"context"

	"wander/internal/types"
)

// Kind classifies a catalog entry.
type Kind string

const (
	KindFamousPlace Kind = "famous_place"
	KindHiddenGem   Kind = "hidden_gem"
	KindTouristTrap Kind = "tourist_trap"
	KindActivity    Kind = "activity"
)

// Place is a simplified catalog result.
type Place struct {
	ID          string
	Kind        Kind
	Name        string
	Description string
	Vicinity    string
	Position    types.Point
	// DistanceM is the distance from the query center in meters.
	DistanceM float64
}

// Catalog looks up significant places near a coordinate.
type Catalog interface {
	// FindNear returns places of the given kind within radiusKm of center,
	// nearest first.
	FindNear(ctx context.Context, center types.Point, radiusKm float64, kind Kind) ([]Place, error)

	// Nearest returns the closest place of any kind within radiusKm of
	// center, or nil when nothing is in range.
	Nearest(ctx context.Context, center types.Point, radiusKm float64) (*Place, error)
}
