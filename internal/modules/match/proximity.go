// README: Live proximity tracking between matched users, with auto-expiry.
package match

import (
	"context"
	"math"
	"time"

	"wander/internal/geo"
	"wander/internal/logger"
	"wander/internal/types"
)

// LocationCache reads a user's last known position; written by the location
// recorder, consumed here.
type LocationCache interface {
	LastKnown(ctx context.Context, user types.ID) (types.Point, time.Time, bool, error)
}

// Directory resolves user display names for close-match alerts.
type Directory interface {
	DisplayName(ctx context.Context, user types.ID) (string, error)
}

// CloseMatch describes a matched user within CloseProximityKm.
type CloseMatch struct {
	MatchID        types.ID `json:"match_id"`
	OtherUserName  string   `json:"other_user"`
	DistanceMeters int      `json:"distance_meters"`
}

// ProximityStats aggregates the outcome of one distance-update pass.
type ProximityStats struct {
	UpdatedCount int          `json:"updated_count"`
	ExpiredCount int          `json:"expired_count"`
	CloseMatches []CloseMatch `json:"close_matches"`
}

// Tracker recomputes live distances for a user's pending matches whenever
// their location changes.
type Tracker struct {
	matches Storage
	lastLoc LocationCache
	names   Directory
	log     logger.ILogger
}

func NewTracker(matches Storage, lastLoc LocationCache, names Directory, log logger.ILogger) *Tracker {
	return &Tracker{matches: matches, lastLoc: lastLoc, names: names, log: log}
}

// UpdateMatchDistances refreshes the live distance of every pending match
// involving user, flags very-close matches, and auto-expires matches whose
// distance exceeds AutoExpireKm (strictly greater).
func (t *Tracker) UpdateMatchDistances(ctx context.Context, user types.ID, lat, lng float64) (ProximityStats, error) {
	stats := ProximityStats{CloseMatches: []CloseMatch{}}

	pending, err := t.matches.PendingInvolving(ctx, user)
	if err != nil {
		return stats, err
	}

	now := time.Now()
	for _, m := range pending {
		other := m.OtherParty(user)

		pos, _, ok, err := t.lastLoc.LastKnown(ctx, other)
		if err != nil || !ok {
			// Other party has never reported a location; skip silently.
			continue
		}

		distance := geo.DistanceKm(lat, lng, pos.Lat, pos.Lng)

		// Distance is persisted on every pass regardless of thresholds.
		if err := t.matches.UpdateDistance(ctx, m.ID, distance, now); err != nil {
			t.log.Warning("distance update failed",
				logger.String("match_id", string(m.ID)), logger.Error(err))
			continue
		}
		stats.UpdatedCount++

		if distance <= CloseProximityKm {
			name := ""
			if t.names != nil {
				if n, err := t.names.DisplayName(ctx, other); err == nil {
					name = n
				}
			}
			stats.CloseMatches = append(stats.CloseMatches, CloseMatch{
				MatchID:        m.ID,
				OtherUserName:  name,
				DistanceMeters: int(math.Round(distance * 1000)),
			})
		}

		if distance > AutoExpireKm && m.Status == StatusPending {
			// Terminal transition: proximity expiry rejects the match and
			// is never reversed by later distance updates.
			ok, err := t.matches.UpdateStatus(ctx, m.ID, StatusPending, StatusRejected, m.StatusVersion, true)
			if err != nil {
				t.log.Warning("proximity expiry failed",
					logger.String("match_id", string(m.ID)), logger.Error(err))
				continue
			}
			if ok {
				stats.ExpiredCount++
			}
		}
	}

	return stats, nil
}

// NearbyMatches lists pending matches whose live distance is at most maxKm,
// closest first.
func (t *Tracker) NearbyMatches(ctx context.Context, user types.ID, maxKm float64) ([]*TripMatch, error) {
	if maxKm <= 0 {
		maxKm = NearbyThresholdKm
	}
	return t.matches.NearbyPending(ctx, user, maxKm)
}

// CleanupExpiredMatches deletes proximity-expired matches that have not been
// updated for seven days. Intended to be run periodically.
func (t *Tracker) CleanupExpiredMatches(ctx context.Context) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -expiredRetentionDays)
	return t.matches.DeleteExpiredBefore(ctx, cutoff)
}

// RunCleanupScheduler deletes stale expired matches hourly until ctx is
// cancelled.
func (t *Tracker) RunCleanupScheduler(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := t.CleanupExpiredMatches(ctx)
			if err != nil {
				t.log.Warning("expired match cleanup failed", logger.Error(err))
				continue
			}
			if n > 0 {
				t.log.Info("expired matches removed", logger.Int("count", n))
			}
		}
	}
}
