// README: Location update handler running the full pipeline.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"wander/internal/http/middleware"
	"wander/internal/modules/location"
	"wander/internal/modules/trip"
	"wander/internal/service"
	"wander/internal/types"
)

type LocationHandler struct {
	pipeline *service.LocationPipeline
	samples  *location.Service
	trips    *trip.Service
}

func NewLocationHandler(pipeline *service.LocationPipeline, samples *location.Service, trips *trip.Service) *LocationHandler {
	return &LocationHandler{pipeline: pipeline, samples: samples, trips: trips}
}

type updateLocationReq struct {
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Accuracy     *float64 `json:"accuracy"`
	Altitude     *float64 `json:"altitude"`
	Speed        *float64 `json:"speed"`
	Heading      *float64 `json:"heading"`
	IsBackground bool     `json:"is_background"`
	BatteryLevel *int     `json:"battery_level"`
	RecordedAt   *string  `json:"recorded_at"`
}

// Update records a sample and fans out to proximity, hotspot, and
// suggestion processing.
func (h *LocationHandler) Update(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	cmd := location.RecordCommand{
		UserID:       middleware.UserID(c),
		Position:     types.Point{Lat: req.Latitude, Lng: req.Longitude},
		Accuracy:     req.Accuracy,
		Altitude:     req.Altitude,
		Speed:        req.Speed,
		Heading:      req.Heading,
		IsBackground: req.IsBackground,
		BatteryLevel: req.BatteryLevel,
	}
	if req.RecordedAt != nil {
		at, err := time.Parse(time.RFC3339, *req.RecordedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recorded_at must be RFC3339"})
			return
		}
		cmd.RecordedAt = at
	}

	result, err := h.pipeline.Update(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"message":   result.Message,
		"location":  toSampleView(result.Sample),
		"proximity": result.Proximity,
	}
	if result.HotspotNote != nil {
		resp["hotspot_notification"] = toSuggestionView(result.HotspotNote)
	}
	if len(result.Suggestions) > 0 {
		resp["suggestions"] = toSuggestionViews(result.Suggestions)
	}
	c.JSON(http.StatusOK, resp)
}

// History returns the caller's recent samples, optionally scoped to a trip.
func (h *LocationHandler) History(c *gin.Context) {
	var tripID *types.ID
	if v := c.Query("trip_id"); v != "" {
		id := types.ID(v)
		tripID = &id
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	samples, err := h.samples.Recent(c.Request.Context(), middleware.UserID(c), tripID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]sampleView, len(samples))
	for i, s := range samples {
		views[i] = toSampleView(s)
	}
	c.JSON(http.StatusOK, gin.H{"locations": views})
}

// Route returns a trip's samples in chronological order. Only the trip
// owner may read the route.
func (h *LocationHandler) Route(c *gin.Context) {
	tripID := types.ID(c.Param("id"))

	t, err := h.trips.Get(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}
	if t.UserID != middleware.UserID(c) {
		respondError(c, trip.ErrNotFound)
		return
	}

	samples, err := h.samples.TripRoute(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]sampleView, len(samples))
	for i, s := range samples {
		views[i] = toSampleView(s)
	}
	c.JSON(http.StatusOK, gin.H{"trip_id": string(tripID), "route": views})
}
