// README: Suggestion engine tests: dedup, failure isolation, prompt context.
package suggestion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"wander/internal/logger"
	"wander/internal/modules/trip"
	"wander/internal/places"
	"wander/internal/types"
)

type fakeSuggestionStore struct {
	byID   map[types.ID]*Suggestion
	recent []Suggestion
}

func newFakeSuggestionStore() *fakeSuggestionStore {
	return &fakeSuggestionStore{byID: make(map[types.ID]*Suggestion)}
}

func (f *fakeSuggestionStore) Create(_ context.Context, s *Suggestion) error {
	cp := *s
	f.byID[s.ID] = &cp
	return nil
}

func (f *fakeSuggestionStore) Get(_ context.Context, id types.ID) (*Suggestion, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSuggestionStore) ListByUser(_ context.Context, user types.ID, tripID *types.ID, unreadOnly bool, limit int) ([]Suggestion, error) {
	var out []Suggestion
	for _, s := range f.byID {
		if s.UserID != user || s.IsDismissed {
			continue
		}
		if tripID != nil && s.TripID != *tripID {
			continue
		}
		if unreadOnly && s.IsRead {
			continue
		}
		if len(out) < limit {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSuggestionStore) RecentForTrip(_ context.Context, _, _ types.ID, _ time.Time) ([]Suggestion, error) {
	return f.recent, nil
}

func (f *fakeSuggestionStore) HasRecentOfType(_ context.Context, _, _ types.ID, _ string, _ *string, _ time.Time) (bool, error) {
	return false, nil
}

func (f *fakeSuggestionStore) MarkRead(_ context.Context, id types.ID, at time.Time) error {
	s, ok := f.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.IsRead = true
	s.ReadAt = &at
	return nil
}

func (f *fakeSuggestionStore) Dismiss(_ context.Context, id types.ID) error {
	s, ok := f.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.IsDismissed = true
	return nil
}

func (f *fakeSuggestionStore) SetRating(_ context.Context, id types.ID, rating int) error {
	s, ok := f.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.UserRating = &rating
	return nil
}

func (f *fakeSuggestionStore) MarkActedUpon(_ context.Context, id types.ID) error {
	s, ok := f.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.IsActedUpon = true
	return nil
}

type fakeCatalog struct {
	byKind map[places.Kind][]places.Place
}

func (f *fakeCatalog) FindNear(_ context.Context, _ types.Point, _ float64, kind places.Kind) ([]places.Place, error) {
	return f.byKind[kind], nil
}

func (f *fakeCatalog) Nearest(_ context.Context, _ types.Point, _ float64) (*places.Place, error) {
	return nil, nil
}

type fakeGenerator struct {
	prompts []string
	failFor string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.failFor != "" && strings.Contains(prompt, f.failFor) {
		return "", errors.New("model overloaded")
	}
	return "Generated tip.", nil
}

func activeTrip(interests ...string) *trip.Trip {
	return &trip.Trip{ID: "t1", UserID: "alice", IsActive: true, Interests: interests}
}

func TestCheckAndGenerate_OnePerNearbyPlace(t *testing.T) {
	store := newFakeSuggestionStore()
	catalog := &fakeCatalog{byKind: map[places.Kind][]places.Place{
		places.KindFamousPlace: {{ID: "p1", Kind: places.KindFamousPlace, Name: "Eiffel Tower", Vicinity: "Champ de Mars", DistanceM: 80}},
		places.KindHiddenGem:   {{ID: "p2", Kind: places.KindHiddenGem, Name: "Rue Cremieux", Description: "colorful street", DistanceM: 40}},
	}}
	gen := &fakeGenerator{}
	engine := NewEngine(store, catalog, gen, logger.Nop())

	pos := types.Point{Lat: 48.8584, Lng: 2.2945}
	out, err := engine.CheckAndGenerate(context.Background(), activeTrip("food"), pos, time.Now())
	if err != nil {
		t.Fatalf("CheckAndGenerate: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(out))
	}
	if len(store.byID) != 2 {
		t.Errorf("expected 2 persisted, got %d", len(store.byID))
	}

	byTitle := map[string]Suggestion{}
	for _, sg := range out {
		byTitle[sg.Title] = sg
	}
	if byTitle["Eiffel Tower"].Type != TypeCultural {
		t.Errorf("famous place mapped to %s", byTitle["Eiffel Tower"].Type)
	}
	if byTitle["Rue Cremieux"].Type != TypeHiddenGem {
		t.Errorf("hidden gem mapped to %s", byTitle["Rue Cremieux"].Type)
	}
	if byTitle["Eiffel Tower"].RelatedPlaceID == nil || *byTitle["Eiffel Tower"].RelatedPlaceID != "p1" {
		t.Error("related place id not recorded")
	}
}

func TestCheckAndGenerate_DedupByRecentNearbySuggestion(t *testing.T) {
	store := newFakeSuggestionStore()
	pos := types.Point{Lat: 48.8584, Lng: 2.2945}
	store.recent = []Suggestion{{Position: pos}}

	catalog := &fakeCatalog{byKind: map[places.Kind][]places.Place{
		places.KindFamousPlace: {{ID: "p1", Kind: places.KindFamousPlace, Name: "Eiffel Tower"}},
	}}
	gen := &fakeGenerator{}
	engine := NewEngine(store, catalog, gen, logger.Nop())

	out, err := engine.CheckAndGenerate(context.Background(), activeTrip(), pos, time.Now())
	if err != nil {
		t.Fatalf("CheckAndGenerate: %v", err)
	}
	if out != nil {
		t.Fatalf("expected dedup suppression, got %d suggestions", len(out))
	}
	if len(gen.prompts) != 0 {
		t.Error("generator called despite dedup")
	}
}

func TestCheckAndGenerate_FarRecentSuggestionDoesNotDedup(t *testing.T) {
	store := newFakeSuggestionStore()
	// Previous suggestion well over 50m away.
	store.recent = []Suggestion{{Position: types.Point{Lat: 48.87, Lng: 2.2945}}}

	catalog := &fakeCatalog{byKind: map[places.Kind][]places.Place{
		places.KindFamousPlace: {{ID: "p1", Kind: places.KindFamousPlace, Name: "Eiffel Tower"}},
	}}
	engine := NewEngine(store, catalog, &fakeGenerator{}, logger.Nop())

	out, err := engine.CheckAndGenerate(context.Background(), activeTrip(), types.Point{Lat: 48.8584, Lng: 2.2945}, time.Now())
	if err != nil {
		t.Fatalf("CheckAndGenerate: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(out))
	}
}

func TestCheckAndGenerate_FailureSkipsOnePlaceOnly(t *testing.T) {
	store := newFakeSuggestionStore()
	catalog := &fakeCatalog{byKind: map[places.Kind][]places.Place{
		places.KindFamousPlace: {{ID: "p1", Kind: places.KindFamousPlace, Name: "Eiffel Tower"}},
		places.KindTouristTrap: {{ID: "p2", Kind: places.KindTouristTrap, Name: "Overpriced Cafe", Description: "menu bait"}},
	}}
	gen := &fakeGenerator{failFor: "Eiffel Tower"}
	engine := NewEngine(store, catalog, gen, logger.Nop())

	out, err := engine.CheckAndGenerate(context.Background(), activeTrip(), types.Point{Lat: 48.8584, Lng: 2.2945}, time.Now())
	if err != nil {
		t.Fatalf("CheckAndGenerate: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected the surviving place only, got %d", len(out))
	}
	if out[0].Title != "Overpriced Cafe" {
		t.Errorf("unexpected survivor %q", out[0].Title)
	}
	if out[0].Type != TypeWarning {
		t.Errorf("tourist trap mapped to %s", out[0].Type)
	}
}

func TestBuildPrompt_Context(t *testing.T) {
	tr := activeTrip("food", "architecture")
	place := places.Place{
		Kind: places.KindFamousPlace, Name: "Eiffel Tower",
		Vicinity: "Champ de Mars", DistanceM: 82,
	}
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

	prompt := buildPrompt(tr, place, at)
	for _, want := range []string{
		"Eiffel Tower", "Champ de Mars", "Morning", "82m away",
		"food, architecture", "famous landmark",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_DefaultInterests(t *testing.T) {
	prompt := buildPrompt(activeTrip(), places.Place{Kind: places.KindActivity, Name: "Kayak Rental"}, time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC))
	if !strings.Contains(prompt, "general exploration") {
		t.Error("empty interests not defaulted")
	}
	if !strings.Contains(prompt, "Night") {
		t.Error("late hour not mapped to Night")
	}
	if !strings.Contains(prompt, "the area") {
		t.Error("empty vicinity not defaulted")
	}
}

func TestTimeOfDay(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{5, "Morning"}, {11, "Morning"},
		{12, "Afternoon"}, {16, "Afternoon"},
		{17, "Evening"}, {20, "Evening"},
		{21, "Night"}, {4, "Night"},
	}
	for _, tc := range cases {
		if got := timeOfDay(tc.hour); got != tc.want {
			t.Errorf("timeOfDay(%d) = %q, want %q", tc.hour, got, tc.want)
		}
	}
}
