// README: Immutable location samples captured from user devices.
package location

import (
	"errors"
	"time"

	"wander/internal/types"
)

var (
	ErrBadCoords  = errors.New("coordinates out of range")
	ErrBadRequest = errors.New("bad request")
)

// Sample is one device-reported position. Rows are never updated, only
// superseded by newer samples.
type Sample struct {
	ID     types.ID
	UserID types.ID
	// TripID is the user's active trip at capture time, nil otherwise.
	TripID   *types.ID
	Position types.Point

	Accuracy *float64 // meters
	Altitude *float64 // meters
	Speed    *float64 // m/s
	Heading  *float64 // degrees 0-360

	IsBackground bool
	BatteryLevel *int

	// RecordedAt is the device clock; ReceivedAt is the server clock.
	RecordedAt time.Time
	ReceivedAt time.Time
}
