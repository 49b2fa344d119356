// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wander/internal/http/handlers"
	"wander/internal/http/middleware"
	"wander/internal/logger"
	"wander/internal/modules/hotspot"
	"wander/internal/modules/location"
	"wander/internal/modules/match"
	"wander/internal/modules/suggestion"
	"wander/internal/modules/trip"
	"wander/internal/service"
)

type RouterDeps struct {
	Trips       *trip.Service
	Matches     *match.Service
	Tracker     *match.Tracker
	Locations   *location.Service
	Pipeline    *service.LocationPipeline
	Suggestions *suggestion.Service
	Hotspots    *hotspot.Store
	Log         logger.ILogger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.RequireUser())

	tripHandler := handlers.NewTripHandler(deps.Trips)
	api.POST("/trips", tripHandler.Create)
	api.GET("/trips", tripHandler.List)
	api.GET("/trips/:id", tripHandler.Get)
	api.PATCH("/trips/:id", tripHandler.Update)
	api.DELETE("/trips/:id", tripHandler.Delete)
	api.POST("/trips/:id/start", tripHandler.Start)
	api.POST("/trips/:id/end", tripHandler.End)

	matchHandler := handlers.NewMatchHandler(deps.Trips, deps.Matches, deps.Tracker)
	api.POST("/trips/:id/matches", matchHandler.Find)
	api.GET("/matches", matchHandler.List)
	api.GET("/matches/nearby", matchHandler.Nearby)
	api.POST("/matches/:id/accept", matchHandler.Accept)
	api.POST("/matches/:id/reject", matchHandler.Reject)

	locationHandler := handlers.NewLocationHandler(deps.Pipeline, deps.Locations, deps.Trips)
	api.POST("/location", locationHandler.Update)
	api.GET("/location/history", locationHandler.History)
	api.GET("/trips/:id/route", locationHandler.Route)

	suggestionHandler := handlers.NewSuggestionHandler(deps.Suggestions)
	api.GET("/suggestions", suggestionHandler.List)
	api.POST("/suggestions/:id/read", suggestionHandler.MarkRead)
	api.POST("/suggestions/:id/dismiss", suggestionHandler.Dismiss)
	api.POST("/suggestions/:id/rate", suggestionHandler.Rate)
	api.POST("/suggestions/:id/acted", suggestionHandler.MarkActedUpon)

	hotspotHandler := handlers.NewHotspotHandler(deps.Hotspots)
	api.GET("/hotspots", hotspotHandler.List)

	return r
}
