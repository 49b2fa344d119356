// README: AI-powered engine generating contextual tips near significant places.
package suggestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wander/internal/ai"
	"wander/internal/geo"
	"wander/internal/logger"
	"wander/internal/modules/trip"
	"wander/internal/places"
	"wander/internal/types"
)

// Proximity thresholds in meters, one per place kind.
const (
	famousPlaceRadiusM      = 100
	hiddenGemRadiusM        = 50
	touristTrapRadiusM      = 200
	activityLocationRadiusM = 150
)

// Spam guard: no new suggestions within this distance of one generated in
// the last dedupWindow.
const (
	dedupRadiusM = 50.0
	dedupWindow  = 2 * time.Hour
)

var kindRadii = []struct {
	kind    places.Kind
	radiusM float64
}{
	{places.KindFamousPlace, famousPlaceRadiusM},
	{places.KindHiddenGem, hiddenGemRadiusM},
	{places.KindTouristTrap, touristTrapRadiusM},
	{places.KindActivity, activityLocationRadiusM},
}

// Engine generates AI suggestions when a traveler comes within range of a
// cataloged place.
type Engine struct {
	store   Storage
	catalog places.Catalog
	gen     ai.TextGenerator
	log     logger.ILogger
}

func NewEngine(store Storage, catalog places.Catalog, gen ai.TextGenerator, log logger.ILogger) *Engine {
	return &Engine{store: store, catalog: catalog, gen: gen, log: log}
}

// CheckAndGenerate inspects the traveler's position against the place
// catalog and produces at most one suggestion per nearby place. A failure
// on one place skips that place only.
func (e *Engine) CheckAndGenerate(ctx context.Context, t *trip.Trip, pos types.Point, now time.Time) ([]Suggestion, error) {
	suggested, err := e.alreadySuggestedHere(ctx, t, pos, now)
	if err != nil {
		return nil, err
	}
	if suggested {
		return nil, nil
	}

	nearby, err := e.findNearbyPlaces(ctx, pos)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return nil, nil
	}

	var generated []Suggestion
	for _, place := range nearby {
		sg, err := e.generateOne(ctx, t, pos, place, now)
		if err != nil {
			e.log.Warning("suggestion generation failed",
				logger.String("place", place.Name),
				logger.Error(err))
			continue
		}
		generated = append(generated, *sg)
	}
	return generated, nil
}

func (e *Engine) alreadySuggestedHere(ctx context.Context, t *trip.Trip, pos types.Point, now time.Time) (bool, error) {
	recent, err := e.store.RecentForTrip(ctx, t.UserID, t.ID, now.Add(-dedupWindow))
	if err != nil {
		return false, fmt.Errorf("loading recent suggestions: %w", err)
	}
	for _, sg := range recent {
		if geo.DistanceMeters(sg.Position.Lat, sg.Position.Lng, pos.Lat, pos.Lng) < dedupRadiusM {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) findNearbyPlaces(ctx context.Context, pos types.Point) ([]places.Place, error) {
	var nearby []places.Place
	for _, kr := range kindRadii {
		found, err := e.catalog.FindNear(ctx, pos, kr.radiusM/1000, kr.kind)
		if err != nil {
			return nil, fmt.Errorf("searching %s places: %w", kr.kind, err)
		}
		nearby = append(nearby, found...)
	}
	return nearby, nil
}

func (e *Engine) generateOne(ctx context.Context, t *trip.Trip, pos types.Point, place places.Place, now time.Time) (*Suggestion, error) {
	prompt := buildPrompt(t, place, now)

	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	placeID := place.ID
	sg := &Suggestion{
		ID:             types.ID(uuid.NewString()),
		UserID:         t.UserID,
		TripID:         t.ID,
		Type:           suggestionType(place.Kind),
		Title:          place.Name,
		Content:        text,
		Position:       pos,
		LocationName:   place.Vicinity,
		RelatedPlaceID: &placeID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.store.Create(ctx, sg); err != nil {
		return nil, fmt.Errorf("persisting suggestion: %w", err)
	}
	return sg, nil
}

func buildPrompt(t *trip.Trip, place places.Place, now time.Time) string {
	interests := "general exploration"
	if len(t.Interests) > 0 {
		interests = strings.Join(t.Interests, ", ")
	}
	area := place.Vicinity
	if area == "" {
		area = "the area"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are a knowledgeable local travel guide. A traveler is currently near %s in %s.

Current context:
- Time: %s
- Distance: %dm away
- Traveler interests: %s
`, place.Name, area, timeOfDay(now.Hour()), int(place.DistanceM), interests)

	switch place.Kind {
	case places.KindFamousPlace:
		b.WriteString(`
This is a famous landmark. Provide a helpful, concise suggestion (2-3 sentences) about:
- Best way to experience it right now
- Insider tip most tourists don't know
- What to watch out for

Keep it friendly and actionable.`)
	case places.KindHiddenGem:
		fmt.Fprintf(&b, `
This is a hidden gem: %s

Provide an enthusiastic, concise tip (2-3 sentences) about:
- Why it's special
- What to do/see there
- Best time if applicable

Make them excited to discover it!`, place.Description)
	case places.KindTouristTrap:
		fmt.Fprintf(&b, `
This is a known tourist trap: %s

Provide a friendly warning (2-3 sentences) with:
- What to be aware of
- Better alternatives nearby if you know any
- How to enjoy it without getting scammed if they still want to visit

Be helpful, not preachy.`, place.Description)
	case places.KindActivity:
		b.WriteString(`
This is an activity location.

Provide practical advice (2-3 sentences):
- Is now a good time for this activity?
- What to bring/prepare
- Pro tip for this activity

Be specific and actionable.`)
	default:
		b.WriteString("\nProvide a helpful travel tip (2-3 sentences) for this location.")
	}

	return b.String()
}

func timeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Morning"
	case hour >= 12 && hour < 17:
		return "Afternoon"
	case hour >= 17 && hour < 21:
		return "Evening"
	default:
		return "Night"
	}
}

func suggestionType(kind places.Kind) string {
	switch kind {
	case places.KindFamousPlace:
		return TypeCultural
	case places.KindHiddenGem:
		return TypeHiddenGem
	case places.KindTouristTrap:
		return TypeWarning
	case places.KindActivity:
		return TypeActivity
	default:
		return TypeActivity
	}
}
