// README: Shared JSON views and error mapping for the API handlers.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wander/internal/modules/location"
	"wander/internal/modules/match"
	"wander/internal/modules/suggestion"
	"wander/internal/modules/trip"
	"wander/internal/types"
)

const dateLayout = "2006-01-02"

// respondError maps domain sentinel errors onto HTTP statuses. Anything
// unmapped is a 500 with a generic body.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrBadRequest),
		errors.Is(err, trip.ErrBadDates),
		errors.Is(err, trip.ErrBadCoords),
		errors.Is(err, match.ErrBadRequest),
		errors.Is(err, location.ErrBadRequest),
		errors.Is(err, location.ErrBadCoords),
		errors.Is(err, suggestion.ErrBadRequest),
		errors.Is(err, suggestion.ErrBadRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, trip.ErrNotFound),
		errors.Is(err, match.ErrNotFound),
		errors.Is(err, suggestion.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, trip.ErrActive),
		errors.Is(err, trip.ErrInactive),
		errors.Is(err, match.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type tripView struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Origin            string    `json:"origin"`
	Destination       string    `json:"destination"`
	OriginLat         *float64  `json:"origin_lat,omitempty"`
	OriginLng         *float64  `json:"origin_lng,omitempty"`
	DestinationLat    *float64  `json:"destination_lat,omitempty"`
	DestinationLng    *float64  `json:"destination_lng,omitempty"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	Interests         []string  `json:"interests"`
	Description       string    `json:"description"`
	MaxCompanions     int       `json:"max_companions"`
	CurrentCompanions int       `json:"current_companions"`
	IsActive          bool      `json:"is_active"`
	Privacy           string    `json:"privacy"`
	CreatedAt         time.Time `json:"created_at"`
}

func toTripView(t *trip.Trip) tripView {
	return tripView{
		ID:                string(t.ID),
		UserID:            string(t.UserID),
		Origin:            t.Origin,
		Destination:       t.Destination,
		OriginLat:         t.OriginLat,
		OriginLng:         t.OriginLng,
		DestinationLat:    t.DestinationLat,
		DestinationLng:    t.DestinationLng,
		StartDate:         t.StartDate.Format(dateLayout),
		EndDate:           t.EndDate.Format(dateLayout),
		Interests:         t.Interests,
		Description:       t.Description,
		MaxCompanions:     t.MaxCompanions,
		CurrentCompanions: t.CurrentCompanions,
		IsActive:          t.IsActive,
		Privacy:           string(t.Privacy),
		CreatedAt:         t.CreatedAt,
	}
}

func toTripViews(trips []*trip.Trip) []tripView {
	out := make([]tripView, len(trips))
	for i, t := range trips {
		out[i] = toTripView(t)
	}
	return out
}

type matchView struct {
	ID                 string     `json:"id"`
	TripID             string     `json:"trip_id"`
	TripUserID         string     `json:"trip_user_id"`
	MatchedUserID      string     `json:"matched_user_id"`
	MatchedTripID      *string    `json:"matched_trip_id,omitempty"`
	Score              float64    `json:"score"`
	CommonInterests    []string   `json:"common_interests"`
	DistanceKm         *float64   `json:"distance_km,omitempty"`
	CurrentDistanceKm  *float64   `json:"current_distance_km,omitempty"`
	LastDistanceUpdate *time.Time `json:"last_distance_update,omitempty"`
	IsProximityExpired bool       `json:"is_proximity_expired"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toMatchView(m *match.TripMatch) matchView {
	return matchView{
		ID:                 string(m.ID),
		TripID:             string(m.TripID),
		TripUserID:         string(m.TripUserID),
		MatchedUserID:      string(m.MatchedUserID),
		MatchedTripID:      idPtrToString(m.MatchedTripID),
		Score:              m.Score,
		CommonInterests:    m.CommonInterests,
		DistanceKm:         m.DistanceKm,
		CurrentDistanceKm:  m.CurrentDistanceKm,
		LastDistanceUpdate: m.LastDistanceUpdate,
		IsProximityExpired: m.IsProximityExpired,
		Status:             string(m.Status),
		CreatedAt:          m.CreatedAt,
	}
}

func toMatchViews(matches []*match.TripMatch) []matchView {
	out := make([]matchView, len(matches))
	for i, m := range matches {
		out[i] = toMatchView(m)
	}
	return out
}

type sampleView struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TripID       *string   `json:"trip_id,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
	Altitude     *float64  `json:"altitude,omitempty"`
	Speed        *float64  `json:"speed,omitempty"`
	Heading      *float64  `json:"heading,omitempty"`
	IsBackground bool      `json:"is_background"`
	BatteryLevel *int      `json:"battery_level,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

func toSampleView(s *location.Sample) sampleView {
	return sampleView{
		ID:           string(s.ID),
		UserID:       string(s.UserID),
		TripID:       idPtrToString(s.TripID),
		Latitude:     s.Position.Lat,
		Longitude:    s.Position.Lng,
		Accuracy:     s.Accuracy,
		Altitude:     s.Altitude,
		Speed:        s.Speed,
		Heading:      s.Heading,
		IsBackground: s.IsBackground,
		BatteryLevel: s.BatteryLevel,
		RecordedAt:   s.RecordedAt,
	}
}

type suggestionView struct {
	ID                 string     `json:"id"`
	TripID             string     `json:"trip_id"`
	Type               string     `json:"suggestion_type"`
	Title              string     `json:"title"`
	Content            string     `json:"content"`
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
	LocationName       string     `json:"location_name,omitempty"`
	RelatedPlaceID     *string    `json:"related_place_id,omitempty"`
	HotspotUserCount   *int       `json:"hotspot_user_count,omitempty"`
	HotspotFriendNames []string   `json:"hotspot_friend_names,omitempty"`
	IsRead             bool       `json:"is_read"`
	ReadAt             *time.Time `json:"read_at,omitempty"`
	IsActedUpon        bool       `json:"is_acted_upon"`
	UserRating         *int       `json:"user_rating,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toSuggestionView(s *suggestion.Suggestion) suggestionView {
	return suggestionView{
		ID:                 string(s.ID),
		TripID:             string(s.TripID),
		Type:               s.Type,
		Title:              s.Title,
		Content:            s.Content,
		Latitude:           s.Position.Lat,
		Longitude:          s.Position.Lng,
		LocationName:       s.LocationName,
		RelatedPlaceID:     s.RelatedPlaceID,
		HotspotUserCount:   s.HotspotUserCount,
		HotspotFriendNames: s.HotspotFriendNames,
		IsRead:             s.IsRead,
		ReadAt:             s.ReadAt,
		IsActedUpon:        s.IsActedUpon,
		UserRating:         s.UserRating,
		CreatedAt:          s.CreatedAt,
	}
}

func toSuggestionViews(list []suggestion.Suggestion) []suggestionView {
	out := make([]suggestionView, len(list))
	for i := range list {
		out[i] = toSuggestionView(&list[i])
	}
	return out
}

func idPtrToString(id *types.ID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
