// README: Detects traveler clusters and notifies nearby users on active trips.
package hotspot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"wander/internal/config"
	"wander/internal/geo"
	"wander/internal/logger"
	"wander/internal/modules/location"
	"wander/internal/modules/suggestion"
	"wander/internal/modules/trip"
	"wander/internal/notify"
	"wander/internal/places"
	"wander/internal/types"
)

// placeMatchRadiusKm bounds the catalog lookup that names a cluster.
const placeMatchRadiusKm = 0.2

// notificationDedupWindow suppresses repeat notifications for the same
// hotspot place.
const notificationDedupWindow = 2 * time.Hour

// Storage is the persistence contract for hotspots.
type Storage interface {
	Create(ctx context.Context, h *Hotspot) error
	Refresh(ctx context.Context, h *Hotspot) error
	ListActive(ctx context.Context, now time.Time) ([]Hotspot, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TripDirectory exposes the trip lookups the detector needs.
type TripDirectory interface {
	ActiveTrip(ctx context.Context, user types.ID, today time.Time) (*trip.Trip, error)
	ActiveTripUserIDs(ctx context.Context, today time.Time) ([]types.ID, error)
}

// SampleSource reads recent location samples.
type SampleSource interface {
	MostRecentPerUser(ctx context.Context, users []types.ID, since time.Time) ([]*location.Sample, error)
}

// SuggestionLog persists hotspot notifications as trip suggestions.
type SuggestionLog interface {
	Create(ctx context.Context, s *suggestion.Suggestion) error
	HasRecentOfType(ctx context.Context, user, tripID types.ID, sugType string, relatedPlaceID *string, since time.Time) (bool, error)
}

// FriendGraph resolves friends and their display names.
type FriendGraph interface {
	FriendsOf(ctx context.Context, user types.ID) ([]types.ID, error)
	DisplayNames(ctx context.Context, users []types.ID) (map[types.ID]string, error)
}

// Detector scans recent activity for clusters of travelers and turns them
// into hotspots plus notifications for users passing nearby.
type Detector struct {
	cfg         config.HotspotConfig
	hotspots    Storage
	trips       TripDirectory
	samples     SampleSource
	catalog     places.Catalog
	suggestions SuggestionLog
	friends     FriendGraph
	push        notify.Sink
	log         logger.ILogger
}

// NewDetector wires a detector. catalog and push may be nil; the detector
// then skips place naming and push delivery respectively.
func NewDetector(
	cfg config.HotspotConfig,
	hotspots Storage,
	trips TripDirectory,
	samples SampleSource,
	catalog places.Catalog,
	suggestions SuggestionLog,
	friends FriendGraph,
	push notify.Sink,
	log logger.ILogger,
) *Detector {
	return &Detector{
		cfg:         cfg,
		hotspots:    hotspots,
		trips:       trips,
		samples:     samples,
		catalog:     catalog,
		suggestions: suggestions,
		friends:     friends,
		push:        push,
		log:         log,
	}
}

// DetectAndNotify refreshes the hotspot set from recent activity, then
// checks whether the reporting user should be told about a nearby hotspot.
// It returns the created notification, or nil when none applies.
func (d *Detector) DetectAndNotify(ctx context.Context, user types.ID, pos types.Point, now time.Time) (*suggestion.Suggestion, error) {
	if _, err := d.hotspots.DeleteExpired(ctx, now); err != nil {
		return nil, fmt.Errorf("cleaning up expired hotspots: %w", err)
	}

	if err := d.updateHotspots(ctx, now); err != nil {
		return nil, err
	}

	activeTrip, err := d.trips.ActiveTrip(ctx, user, dateOnly(now))
	if errors.Is(err, trip.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading active trip: %w", err)
	}

	nearby, err := d.findNearbyHotspot(ctx, pos, now)
	if err != nil {
		return nil, err
	}
	if nearby == nil {
		return nil, nil
	}

	// Users already at the hotspot don't need to be told about it.
	distanceKm := geo.DistanceKm(pos.Lat, pos.Lng, nearby.Center.Lat, nearby.Center.Lng)
	if distanceKm < d.cfg.ClusterRadiusKm {
		return nil, nil
	}

	return d.createNotification(ctx, user, activeTrip, nearby, distanceKm, now)
}

// updateHotspots scans the latest sample per active-trip user, clusters
// them, and refreshes or creates hotspots for qualifying clusters.
func (d *Detector) updateHotspots(ctx context.Context, now time.Time) error {
	users, err := d.trips.ActiveTripUserIDs(ctx, dateOnly(now))
	if err != nil {
		return fmt.Errorf("listing active trip users: %w", err)
	}
	if len(users) == 0 {
		return nil
	}

	windowStart := now.Add(-time.Duration(d.cfg.ActivityWindowMinutes) * time.Minute)
	samples, err := d.samples.MostRecentPerUser(ctx, users, windowStart)
	if err != nil {
		return fmt.Errorf("loading recent samples: %w", err)
	}

	existing, err := d.hotspots.ListActive(ctx, now)
	if err != nil {
		return fmt.Errorf("listing active hotspots: %w", err)
	}

	for _, c := range d.clusterSamples(ctx, samples) {
		if c.userCount < d.cfg.MinUsers {
			continue
		}
		if err := d.applyCluster(ctx, c, existing, now); err != nil {
			return err
		}
	}
	return nil
}

// clusterSamples groups samples whose positions fall within the cluster
// radius of each other. The pass is greedy and order-dependent: each sample
// seeds a cluster from whatever unclaimed samples lie near it.
func (d *Detector) clusterSamples(ctx context.Context, samples []*location.Sample) []cluster {
	var clusters []cluster
	claimed := make(map[types.ID]bool)

	for _, seed := range samples {
		if claimed[seed.UserID] {
			continue
		}

		var members []*location.Sample
		for _, other := range samples {
			if claimed[other.UserID] {
				continue
			}
			if geo.DistanceKm(seed.Position.Lat, seed.Position.Lng, other.Position.Lat, other.Position.Lng) <= d.cfg.ClusterRadiusKm {
				members = append(members, other)
				claimed[other.UserID] = true
			}
		}

		if len(members) < d.cfg.MinUsers {
			continue
		}

		var sumLat, sumLng float64
		userIDs := make([]types.ID, len(members))
		for i, m := range members {
			sumLat += m.Position.Lat
			sumLng += m.Position.Lng
			userIDs[i] = m.UserID
		}
		center := types.Point{
			Lat: sumLat / float64(len(members)),
			Lng: sumLng / float64(len(members)),
		}

		c := cluster{center: center, userCount: len(members), userIDs: userIDs}
		c.placeName, c.relatedPlaceID = d.matchPlace(ctx, center)
		clusters = append(clusters, c)
	}
	return clusters
}

// matchPlace asks the catalog for a known place at the cluster center.
// Lookup failures leave the hotspot unnamed.
func (d *Detector) matchPlace(ctx context.Context, center types.Point) (string, *string) {
	if d.catalog == nil {
		return "", nil
	}
	place, err := d.catalog.Nearest(ctx, center, placeMatchRadiusKm)
	if err != nil {
		d.log.Warning("place match failed", logger.Error(err))
		return "", nil
	}
	if place == nil {
		return "", nil
	}
	id := place.ID
	return place.Name, &id
}

func (d *Detector) applyCluster(ctx context.Context, c cluster, existing []Hotspot, now time.Time) error {
	expiresAt := now.Add(time.Duration(d.cfg.ExpiryMinutes) * time.Minute)

	for i := range existing {
		h := &existing[i]
		if geo.DistanceKm(c.center.Lat, c.center.Lng, h.Center.Lat, h.Center.Lng) > d.cfg.ClusterRadiusKm {
			continue
		}
		h.UserCount = c.userCount
		h.ActiveUsers = c.userIDs
		h.LastActivity = now
		h.ExpiresAt = expiresAt
		if c.placeName != "" {
			h.PlaceName = c.placeName
			h.RelatedPlaceID = c.relatedPlaceID
		}
		if err := d.hotspots.Refresh(ctx, h); err != nil {
			return fmt.Errorf("refreshing hotspot %s: %w", string(h.ID), err)
		}
		return nil
	}

	h := &Hotspot{
		ID:             types.ID(uuid.NewString()),
		Center:         c.center,
		PlaceName:      c.placeName,
		RelatedPlaceID: c.relatedPlaceID,
		UserCount:      c.userCount,
		ActiveUsers:    c.userIDs,
		FirstDetected:  now,
		LastActivity:   now,
		ExpiresAt:      expiresAt,
	}
	if err := d.hotspots.Create(ctx, h); err != nil {
		return fmt.Errorf("creating hotspot: %w", err)
	}
	return nil
}

// findNearbyHotspot returns the closest qualifying hotspot within the
// notification radius, or nil.
func (d *Detector) findNearbyHotspot(ctx context.Context, pos types.Point, now time.Time) (*Hotspot, error) {
	active, err := d.hotspots.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("listing active hotspots: %w", err)
	}

	var closest *Hotspot
	minDistance := math.Inf(1)
	for i := range active {
		h := &active[i]
		if h.UserCount < d.cfg.MinUsers {
			continue
		}
		dist := geo.DistanceKm(pos.Lat, pos.Lng, h.Center.Lat, h.Center.Lng)
		if dist <= d.cfg.NotificationRadiusKm && dist < minDistance {
			minDistance = dist
			closest = h
		}
	}
	return closest, nil
}

func (d *Detector) createNotification(ctx context.Context, user types.ID, t *trip.Trip, h *Hotspot, distanceKm float64, now time.Time) (*suggestion.Suggestion, error) {
	already, err := d.suggestions.HasRecentOfType(ctx, user, t.ID, suggestion.TypeHotspot, h.RelatedPlaceID, now.Add(-notificationDedupWindow))
	if err != nil {
		return nil, fmt.Errorf("checking recent notifications: %w", err)
	}
	if already {
		return nil, nil
	}

	friendNames, err := d.friendNamesAt(ctx, user, h)
	if err != nil {
		d.log.Warning("resolving friend names failed", logger.Error(err))
		friendNames = nil
	}

	title, content := hotspotMessage(h, friendNames, distanceKm)

	userCount := h.UserCount
	sg := &suggestion.Suggestion{
		ID:                 types.ID(uuid.NewString()),
		UserID:             user,
		TripID:             t.ID,
		Type:               suggestion.TypeHotspot,
		Title:              title,
		Content:            content,
		Position:           h.Center,
		LocationName:       h.PlaceName,
		RelatedPlaceID:     h.RelatedPlaceID,
		HotspotUserCount:   &userCount,
		HotspotFriendNames: friendNames,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := d.suggestions.Create(ctx, sg); err != nil {
		return nil, fmt.Errorf("persisting hotspot notification: %w", err)
	}

	if d.push != nil {
		note := notify.Notification{
			Title: title,
			Body:  content,
			Data: map[string]string{
				"type":          "activity_hotspot",
				"suggestion_id": string(sg.ID),
			},
		}
		if err := d.push.Push(ctx, user, note); err != nil {
			d.log.Warning("hotspot push failed", logger.Error(err))
		}
	}

	return sg, nil
}

// friendNamesAt lists the display names of the user's friends currently in
// the hotspot.
func (d *Detector) friendNamesAt(ctx context.Context, user types.ID, h *Hotspot) ([]string, error) {
	friends, err := d.friends.FriendsOf(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(friends) == 0 {
		return nil, nil
	}

	friendSet := make(map[types.ID]bool, len(friends))
	for _, f := range friends {
		friendSet[f] = true
	}

	var present []types.ID
	for _, u := range h.ActiveUsers {
		if friendSet[u] {
			present = append(present, u)
		}
	}
	if len(present) == 0 {
		return nil, nil
	}

	names, err := d.friends.DisplayNames(ctx, present)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(present))
	for _, u := range present {
		if name, ok := names[u]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hotspotMessage(h *Hotspot, friendNames []string, distanceKm float64) (title, content string) {
	locationText := h.PlaceName
	if locationText == "" {
		locationText = fmt.Sprintf("(%.6f, %.6f)", h.Center.Lat, h.Center.Lng)
	}

	var distanceText string
	if distanceKm >= 1 {
		distanceText = fmt.Sprintf("%.1fkm", distanceKm)
	} else {
		distanceText = fmt.Sprintf("%dm", int(distanceKm*1000))
	}

	if len(friendNames) > 0 {
		title = "🔥 Your Friends Are Nearby!"
		content = fmt.Sprintf(
			"Your friends %s are part of a crowd of %d travelers at %s (%s from you). Want to check it out?",
			strings.Join(friendNames, ", "), h.UserCount, locationText, distanceText)
		return title, content
	}

	title = "🔥 Activity Nearby!"
	content = fmt.Sprintf(
		"%d travelers are currently at %s (%s from you). Something interesting might be happening! Want to check it out?",
		h.UserCount, locationText, distanceText)
	return title, content
}

