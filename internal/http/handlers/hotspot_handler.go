// README: Active hotspot listing handler.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wander/internal/modules/hotspot"
)

type HotspotHandler struct {
	hotspots *hotspot.Store
}

func NewHotspotHandler(store *hotspot.Store) *HotspotHandler {
	return &HotspotHandler{hotspots: store}
}

type hotspotView struct {
	ID             string    `json:"id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	PlaceName      string    `json:"place_name,omitempty"`
	RelatedPlaceID *string   `json:"related_place_id,omitempty"`
	UserCount      int       `json:"user_count"`
	FirstDetected  time.Time `json:"first_detected"`
	LastActivity   time.Time `json:"last_activity"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// List returns currently active hotspots. Active user IDs stay private;
// only the count is exposed.
func (h *HotspotHandler) List(c *gin.Context) {
	active, err := h.hotspots.ListActive(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]hotspotView, len(active))
	for i, hs := range active {
		views[i] = hotspotView{
			ID:             string(hs.ID),
			Latitude:       hs.Center.Lat,
			Longitude:      hs.Center.Lng,
			PlaceName:      hs.PlaceName,
			RelatedPlaceID: hs.RelatedPlaceID,
			UserCount:      hs.UserCount,
			FirstDetected:  hs.FirstDetected,
			LastActivity:   hs.LastActivity,
			ExpiresAt:      hs.ExpiresAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"hotspots": views})
}
