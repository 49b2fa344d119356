// README: Companion match handlers for find/list/accept/reject.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wander/internal/http/middleware"
	"wander/internal/modules/match"
	"wander/internal/modules/trip"
	"wander/internal/types"
)

type MatchHandler struct {
	trips   *trip.Service
	matches *match.Service
	tracker *match.Tracker
}

func NewMatchHandler(trips *trip.Service, matches *match.Service, tracker *match.Tracker) *MatchHandler {
	return &MatchHandler{trips: trips, matches: matches, tracker: tracker}
}

// Find recomputes matches for the caller's trip and returns them best first.
func (h *MatchHandler) Find(c *gin.Context) {
	t, err := h.trips.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	if t.UserID != middleware.UserID(c) {
		respondError(c, trip.ErrNotFound)
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	found, err := h.matches.FindMatches(c.Request.Context(), t, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": toMatchViews(found)})
}

func (h *MatchHandler) List(c *gin.Context) {
	list, err := h.matches.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": toMatchViews(list)})
}

func (h *MatchHandler) Accept(c *gin.Context) {
	m, err := h.matches.Accept(c.Request.Context(), types.ID(c.Param("id")), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMatchView(m))
}

func (h *MatchHandler) Reject(c *gin.Context) {
	m, err := h.matches.Reject(c.Request.Context(), types.ID(c.Param("id")), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMatchView(m))
}

// Nearby lists pending matches by live distance, closest first.
func (h *MatchHandler) Nearby(c *gin.Context) {
	maxKm, _ := strconv.ParseFloat(c.Query("max_km"), 64)
	list, err := h.tracker.NearbyMatches(c.Request.Context(), middleware.UserID(c), maxKm)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": toMatchViews(list)})
}
