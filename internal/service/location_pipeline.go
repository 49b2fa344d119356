// README: Fan-out pipeline run on every location update.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"wander/internal/logger"
	"wander/internal/modules/location"
	"wander/internal/modules/match"
	"wander/internal/modules/suggestion"
	"wander/internal/modules/trip"
	"wander/internal/types"
)

// Recorder persists a location sample.
type Recorder interface {
	Record(ctx context.Context, cmd location.RecordCommand) (*location.Sample, error)
}

// TripResolver finds the user's active trip, ErrNotFound when none.
type TripResolver interface {
	ActiveTrip(ctx context.Context, user types.ID) (*trip.Trip, error)
}

// ProximityUpdater refreshes distances for the user's pending matches.
type ProximityUpdater interface {
	UpdateMatchDistances(ctx context.Context, user types.ID, lat, lng float64) (match.ProximityStats, error)
}

// HotspotNotifier runs hotspot detection for the reporting user.
type HotspotNotifier interface {
	DetectAndNotify(ctx context.Context, user types.ID, pos types.Point, now time.Time) (*suggestion.Suggestion, error)
}

// TipGenerator produces contextual suggestions near significant places.
type TipGenerator interface {
	CheckAndGenerate(ctx context.Context, t *trip.Trip, pos types.Point, now time.Time) ([]suggestion.Suggestion, error)
}

// LocationUpdateResult is the aggregated outcome of one location update.
type LocationUpdateResult struct {
	Sample      *location.Sample        `json:"location"`
	Proximity   match.ProximityStats    `json:"proximity"`
	HotspotNote *suggestion.Suggestion  `json:"hotspot_notification,omitempty"`
	Suggestions []suggestion.Suggestion `json:"suggestions,omitempty"`
	Message     string                  `json:"message"`
}

// LocationPipeline records a sample, then fans out to proximity tracking,
// hotspot detection, and suggestion generation. The sample write is the
// only step that can fail the update; everything after it is best effort.
type LocationPipeline struct {
	recorder  Recorder
	trips     TripResolver
	proximity ProximityUpdater
	hotspots  HotspotNotifier
	tips      TipGenerator
	log       logger.ILogger
}

func NewLocationPipeline(
	recorder Recorder,
	trips TripResolver,
	proximity ProximityUpdater,
	hotspots HotspotNotifier,
	tips TipGenerator,
	log logger.ILogger,
) *LocationPipeline {
	return &LocationPipeline{
		recorder:  recorder,
		trips:     trips,
		proximity: proximity,
		hotspots:  hotspots,
		tips:      tips,
		log:       log,
	}
}

// Update runs the full pipeline for one location report.
func (p *LocationPipeline) Update(ctx context.Context, cmd location.RecordCommand) (*LocationUpdateResult, error) {
	sample, err := p.recorder.Record(ctx, cmd)
	if err != nil {
		return nil, err
	}

	result := &LocationUpdateResult{
		Sample:    sample,
		Proximity: match.ProximityStats{CloseMatches: []match.CloseMatch{}},
	}
	now := time.Now()

	var activeTrip *trip.Trip
	if sample.TripID != nil && p.trips != nil {
		activeTrip, err = p.trips.ActiveTrip(ctx, cmd.UserID)
		if err != nil && !errors.Is(err, trip.ErrNotFound) {
			p.log.Warning("active trip lookup failed",
				logger.String("user_id", string(cmd.UserID)), logger.Error(err))
		}
	}

	var wg sync.WaitGroup

	if p.proximity != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := p.proximity.UpdateMatchDistances(ctx, cmd.UserID, cmd.Position.Lat, cmd.Position.Lng)
			if err != nil {
				p.log.Warning("proximity update failed",
					logger.String("user_id", string(cmd.UserID)), logger.Error(err))
				return
			}
			result.Proximity = stats
		}()
	}

	if p.hotspots != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			note, err := p.hotspots.DetectAndNotify(ctx, cmd.UserID, cmd.Position, now)
			if err != nil {
				p.log.Warning("hotspot detection failed",
					logger.String("user_id", string(cmd.UserID)), logger.Error(err))
				return
			}
			result.HotspotNote = note
		}()
	}

	if p.tips != nil && activeTrip != nil && activeTrip.IsActive {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tips, err := p.tips.CheckAndGenerate(ctx, activeTrip, cmd.Position, now)
			if err != nil {
				p.log.Warning("suggestion generation failed",
					logger.String("user_id", string(cmd.UserID)), logger.Error(err))
				return
			}
			result.Suggestions = tips
		}()
	}

	wg.Wait()

	result.Message = composeMessage(result)
	return result, nil
}

func composeMessage(r *LocationUpdateResult) string {
	var b strings.Builder
	b.WriteString("Location recorded successfully.")
	if r.HotspotNote != nil {
		b.WriteString(" 🔥 Hotspot detected nearby!")
	}
	if n := len(r.Proximity.CloseMatches); n > 0 {
		fmt.Fprintf(&b, " %d match(es) nearby!", n)
	}
	if r.Proximity.ExpiredCount > 0 {
		fmt.Fprintf(&b, " %d distant match(es) removed.", r.Proximity.ExpiredCount)
	}
	return b.String()
}
