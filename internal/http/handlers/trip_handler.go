// README: Trip CRUD and lifecycle handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wander/internal/http/middleware"
	"wander/internal/modules/trip"
	"wander/internal/types"
)

type TripHandler struct {
	trips *trip.Service
}

func NewTripHandler(svc *trip.Service) *TripHandler {
	return &TripHandler{trips: svc}
}

type createTripReq struct {
	Destination    string   `json:"destination"`
	DestinationLat *float64 `json:"destination_lat"`
	DestinationLng *float64 `json:"destination_lng"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	Interests      []string `json:"interests"`
	Description    string   `json:"description"`
	MaxCompanions  int      `json:"max_companions"`
	Privacy        string   `json:"privacy"`
}

func (h *TripHandler) Create(c *gin.Context) {
	var req createTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return
	}

	t, err := h.trips.Create(c.Request.Context(), trip.CreateCommand{
		UserID:         middleware.UserID(c),
		Destination:    req.Destination,
		DestinationLat: req.DestinationLat,
		DestinationLng: req.DestinationLng,
		StartDate:      start,
		EndDate:        end,
		Interests:      req.Interests,
		Description:    req.Description,
		MaxCompanions:  req.MaxCompanions,
		Privacy:        trip.Privacy(req.Privacy),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTripView(t))
}

type updateTripReq struct {
	Origin         *string  `json:"origin"`
	Destination    *string  `json:"destination"`
	OriginLat      *float64 `json:"origin_lat"`
	OriginLng      *float64 `json:"origin_lng"`
	DestinationLat *float64 `json:"destination_lat"`
	DestinationLng *float64 `json:"destination_lng"`
	StartDate      *string  `json:"start_date"`
	EndDate        *string  `json:"end_date"`
	Interests      []string `json:"interests"`
	Description    *string  `json:"description"`
	MaxCompanions  *int     `json:"max_companions"`
	Privacy        *string  `json:"privacy"`
}

func (h *TripHandler) Update(c *gin.Context) {
	var req updateTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	cmd := trip.UpdateCommand{
		TripID:         types.ID(c.Param("id")),
		UserID:         middleware.UserID(c),
		Origin:         req.Origin,
		Destination:    req.Destination,
		OriginLat:      req.OriginLat,
		OriginLng:      req.OriginLng,
		DestinationLat: req.DestinationLat,
		DestinationLng: req.DestinationLng,
		Interests:      req.Interests,
		Description:    req.Description,
		MaxCompanions:  req.MaxCompanions,
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		cmd.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		cmd.EndDate = &end
	}
	if req.Privacy != nil {
		p := trip.Privacy(*req.Privacy)
		cmd.Privacy = &p
	}

	t, err := h.trips.Update(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTripView(t))
}

func (h *TripHandler) Delete(c *gin.Context) {
	err := h.trips.Delete(c.Request.Context(), types.ID(c.Param("id")), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TripHandler) Get(c *gin.Context) {
	t, err := h.trips.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTripView(t))
}

func (h *TripHandler) List(c *gin.Context) {
	trips, err := h.trips.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": toTripViews(trips)})
}

// Start activates the trip and kicks off companion matching.
func (h *TripHandler) Start(c *gin.Context) {
	t, found, err := h.trips.Start(c.Request.Context(), types.ID(c.Param("id")), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": toTripView(t), "matches_found": found})
}

func (h *TripHandler) End(c *gin.Context) {
	t, err := h.trips.End(c.Request.Context(), types.ID(c.Param("id")), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTripView(t))
}
