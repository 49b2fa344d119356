// README: Suggestion listing and engagement handlers.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wander/internal/http/middleware"
	"wander/internal/modules/suggestion"
	"wander/internal/types"
)

type SuggestionHandler struct {
	suggestions *suggestion.Service
}

func NewSuggestionHandler(svc *suggestion.Service) *SuggestionHandler {
	return &SuggestionHandler{suggestions: svc}
}

func (h *SuggestionHandler) List(c *gin.Context) {
	var tripID *types.ID
	if v := c.Query("trip_id"); v != "" {
		id := types.ID(v)
		tripID = &id
	}
	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.Query("limit"))

	list, err := h.suggestions.List(c.Request.Context(), middleware.UserID(c), tripID, unreadOnly, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": toSuggestionViews(list)})
}

func (h *SuggestionHandler) MarkRead(c *gin.Context) {
	err := h.suggestions.MarkRead(c.Request.Context(), middleware.UserID(c), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SuggestionHandler) Dismiss(c *gin.Context) {
	err := h.suggestions.Dismiss(c.Request.Context(), middleware.UserID(c), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type rateReq struct {
	Rating int `json:"rating"`
}

func (h *SuggestionHandler) Rate(c *gin.Context) {
	var req rateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.suggestions.Rate(c.Request.Context(), middleware.UserID(c), types.ID(c.Param("id")), req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SuggestionHandler) MarkActedUpon(c *gin.Context) {
	err := h.suggestions.MarkActedUpon(c.Request.Context(), middleware.UserID(c), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
