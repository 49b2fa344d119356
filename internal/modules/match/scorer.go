// README: Compatibility scoring between two trips (dates, destination, interests).
package match

import (
	"math"
	"strings"

	"wander/internal/geo"
	"wander/internal/modules/trip"
)

// Breakdown retains the per-component detail behind a score.
type Breakdown struct {
	DateOverlapDays int      `json:"date_overlap_days"`
	DateScore       float64  `json:"date_score"`
	DistanceScore   float64  `json:"distance_score"`
	InterestScore   float64  `json:"interest_score"`
	CommonInterests []string `json:"common_interests"`
	// DistanceKm is nil when either trip lacks destination coordinates.
	DistanceKm *float64 `json:"distance_km"`
}

// Score computes the 0-100 compatibility between two trips.
// Weights: date overlap 50, destination distance 30, shared interests 20.
// Zero date overlap short-circuits to 0.
func Score(a, b *trip.Trip) (float64, Breakdown) {
	bd := Breakdown{CommonInterests: []string{}}

	overlapDays := dateOverlapDays(a, b)
	if overlapDays == 0 {
		return 0, bd
	}
	bd.DateOverlapDays = overlapDays

	maxDuration := a.DurationDays()
	if d := b.DurationDays(); d > maxDuration {
		maxDuration = d
	}
	dateScore := float64(overlapDays) / float64(maxDuration) * 50
	bd.DateScore = round2(dateScore)

	var distanceScore float64
	if a.HasDestinationCoords() && b.HasDestinationCoords() {
		distance := geo.DistanceKm(
			*a.DestinationLat, *a.DestinationLng,
			*b.DestinationLat, *b.DestinationLng,
		)
		rounded := round2(distance)
		bd.DistanceKm = &rounded

		if distance <= MaxDestDistanceKm {
			distanceScore = (MaxDestDistanceKm - distance) / MaxDestDistanceKm * 30
		}
	} else if strings.EqualFold(a.Destination, b.Destination) {
		distanceScore = 30
	}
	bd.DistanceScore = round2(distanceScore)

	common, pct := interestMatch(a.Interests, b.Interests)
	interestScore := pct / 100 * 20
	bd.InterestScore = round2(interestScore)
	bd.CommonInterests = common

	return round2(dateScore + distanceScore + interestScore), bd
}

// dateOverlapDays is the inclusive number of days both date ranges share.
func dateOverlapDays(a, b *trip.Trip) int {
	start := a.StartDate
	if b.StartDate.After(start) {
		start = b.StartDate
	}
	end := a.EndDate
	if b.EndDate.Before(end) {
		end = b.EndDate
	}
	if start.After(end) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// interestMatch returns the shared interests and the Jaccard percentage
// (|intersection| / |union| * 100).
func interestMatch(a, b []string) ([]string, float64) {
	if len(a) == 0 || len(b) == 0 {
		return []string{}, 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	union := make(map[string]struct{}, len(a)+len(b))
	for v := range setA {
		union[v] = struct{}{}
	}

	common := []string{}
	seen := make(map[string]struct{})
	for _, v := range b {
		union[v] = struct{}{}
		if _, ok := setA[v]; ok {
			if _, dup := seen[v]; !dup {
				seen[v] = struct{}{}
				common = append(common, v)
			}
		}
	}

	if len(union) == 0 {
		return []string{}, 0
	}
	return common, float64(len(common)) / float64(len(union)) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
