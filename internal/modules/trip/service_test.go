// README: Trip service tests over an in-memory store.
package trip

import (
	"context"
	"testing"
	"time"

	"wander/internal/logger"
	"wander/internal/types"
)

type fakeTripStore struct {
	trips map[types.ID]*Trip
}

func newFakeTripStore() *fakeTripStore {
	return &fakeTripStore{trips: make(map[types.ID]*Trip)}
}

func (f *fakeTripStore) Create(_ context.Context, t *Trip) error {
	cp := *t
	f.trips[t.ID] = &cp
	return nil
}

func (f *fakeTripStore) Get(_ context.Context, id types.ID) (*Trip, error) {
	t, ok := f.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTripStore) Update(_ context.Context, t *Trip) error {
	if _, ok := f.trips[t.ID]; !ok {
		return ErrNotFound
	}
	cp := *t
	f.trips[t.ID] = &cp
	return nil
}

func (f *fakeTripStore) Delete(_ context.Context, id types.ID) error {
	if _, ok := f.trips[id]; !ok {
		return ErrNotFound
	}
	delete(f.trips, id)
	return nil
}

func (f *fakeTripStore) ListByUser(_ context.Context, user types.ID) ([]*Trip, error) {
	var out []*Trip
	for _, t := range f.trips {
		if t.UserID == user {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTripStore) SetActive(_ context.Context, id types.ID, active bool) error {
	t, ok := f.trips[id]
	if !ok {
		return ErrNotFound
	}
	t.IsActive = active
	return nil
}

func (f *fakeTripStore) ActiveTrip(_ context.Context, user types.ID, today time.Time) (*Trip, error) {
	var best *Trip
	for _, t := range f.trips {
		if t.UserID != user || !t.IsActive {
			continue
		}
		if today.Before(t.StartDate) || today.After(t.EndDate) {
			continue
		}
		if best == nil || t.StartDate.After(best.StartDate) {
			best = t
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	cp := *best
	return &cp, nil
}

type fakeFinder struct {
	calls int
	found int
}

func (f *fakeFinder) FindForTrip(_ context.Context, _ types.ID, _ int) (int, error) {
	f.calls++
	return f.found, nil
}

type fakeLastLoc struct {
	pos types.Point
	ok  bool
}

func (f *fakeLastLoc) LastKnown(_ context.Context, _ types.ID) (types.Point, time.Time, bool, error) {
	return f.pos, time.Now(), f.ok, nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestTripService(store *fakeTripStore, finder MatchFinder, lastLoc LocationCache) *Service {
	return NewService(store, finder, lastLoc, logger.Nop())
}

func TestCreate_Defaults(t *testing.T) {
	store := newFakeTripStore()
	svc := newTestTripService(store, nil, nil)

	tr, err := svc.Create(context.Background(), CreateCommand{
		UserID:      "alice",
		Destination: "Kyoto",
		StartDate:   day("2024-04-01"),
		EndDate:     day("2024-04-10"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tr.ID == "" {
		t.Error("missing id")
	}
	if tr.Privacy != PrivacyFriendsOnly {
		t.Errorf("expected friends_only default, got %s", tr.Privacy)
	}
	if tr.Origin != "Current Location" {
		t.Errorf("unexpected origin %q", tr.Origin)
	}
	if tr.Interests == nil || len(tr.Interests) != 0 {
		t.Errorf("expected empty interest slice, got %v", tr.Interests)
	}
	if tr.IsActive {
		t.Error("new trip must not be active")
	}
	if _, ok := store.trips[tr.ID]; !ok {
		t.Error("trip not persisted")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestTripService(newFakeTripStore(), nil, nil)
	lat := 35.0116

	cases := []struct {
		name string
		cmd  CreateCommand
		want error
	}{
		{"missing user", CreateCommand{Destination: "Kyoto", StartDate: day("2024-04-01"), EndDate: day("2024-04-02")}, ErrBadRequest},
		{"missing destination", CreateCommand{UserID: "alice", StartDate: day("2024-04-01"), EndDate: day("2024-04-02")}, ErrBadRequest},
		{"inverted dates", CreateCommand{UserID: "alice", Destination: "Kyoto", StartDate: day("2024-04-10"), EndDate: day("2024-04-01")}, ErrBadDates},
		{"lat without lng", CreateCommand{UserID: "alice", Destination: "Kyoto", StartDate: day("2024-04-01"), EndDate: day("2024-04-02"), DestinationLat: &lat}, ErrBadCoords},
		{"lng out of range", CreateCommand{UserID: "alice", Destination: "Kyoto", StartDate: day("2024-04-01"), EndDate: day("2024-04-02"), DestinationLat: &lat, DestinationLng: func() *float64 { v := 181.0; return &v }()}, ErrBadCoords},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.cmd); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreate_OriginFromLastKnownLocation(t *testing.T) {
	store := newFakeTripStore()
	svc := newTestTripService(store, nil, &fakeLastLoc{pos: types.Point{Lat: 35.0, Lng: 135.7}, ok: true})

	tr, err := svc.Create(context.Background(), CreateCommand{
		UserID:      "alice",
		Destination: "Kyoto",
		StartDate:   day("2024-04-01"),
		EndDate:     day("2024-04-10"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tr.OriginLat == nil || *tr.OriginLat != 35.0 {
		t.Errorf("origin lat not filled: %v", tr.OriginLat)
	}
	if tr.OriginLng == nil || *tr.OriginLng != 135.7 {
		t.Errorf("origin lng not filled: %v", tr.OriginLng)
	}
}

func TestUpdate_PatchSemantics(t *testing.T) {
	store := newFakeTripStore()
	svc := newTestTripService(store, nil, nil)

	tr, err := svc.Create(context.Background(), CreateCommand{
		UserID:      "alice",
		Destination: "Kyoto",
		StartDate:   day("2024-04-01"),
		EndDate:     day("2024-04-10"),
		Interests:   []string{"temples"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	desc := "cherry blossom season"
	updated, err := svc.Update(context.Background(), UpdateCommand{
		TripID:      tr.ID,
		UserID:      "alice",
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Description != desc {
		t.Errorf("description not updated: %q", updated.Description)
	}
	if updated.Destination != "Kyoto" {
		t.Errorf("untouched field changed: %q", updated.Destination)
	}
	if len(updated.Interests) != 1 || updated.Interests[0] != "temples" {
		t.Errorf("nil interests must not clear existing: %v", updated.Interests)
	}
}

func TestUpdate_RejectsInvertedDates(t *testing.T) {
	store := newFakeTripStore()
	svc := newTestTripService(store, nil, nil)

	tr, _ := svc.Create(context.Background(), CreateCommand{
		UserID: "alice", Destination: "Kyoto",
		StartDate: day("2024-04-01"), EndDate: day("2024-04-10"),
	})

	bad := day("2024-03-01")
	if _, err := svc.Update(context.Background(), UpdateCommand{
		TripID: tr.ID, UserID: "alice", EndDate: &bad,
	}); err != ErrBadDates {
		t.Fatalf("expected ErrBadDates, got %v", err)
	}
}

func TestDelete_OwnershipEnforced(t *testing.T) {
	store := newFakeTripStore()
	svc := newTestTripService(store, nil, nil)

	tr, _ := svc.Create(context.Background(), CreateCommand{
		UserID: "alice", Destination: "Kyoto",
		StartDate: day("2024-04-01"), EndDate: day("2024-04-10"),
	})

	if err := svc.Delete(context.Background(), tr.ID, "mallory"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign trip, got %v", err)
	}
	if err := svc.Delete(context.Background(), tr.ID, "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := store.trips[tr.ID]; ok {
		t.Error("trip still present after delete")
	}
}

func TestStart(t *testing.T) {
	store := newFakeTripStore()
	finder := &fakeFinder{found: 3}
	svc := newTestTripService(store, finder, nil)

	tr, _ := svc.Create(context.Background(), CreateCommand{
		UserID: "alice", Destination: "Kyoto",
		StartDate: day("2024-04-01"), EndDate: day("2024-04-10"),
	})

	started, found, err := svc.Start(context.Background(), tr.ID, "alice")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !started.IsActive {
		t.Error("trip not active after start")
	}
	if found != 3 {
		t.Errorf("expected 3 matches found, got %d", found)
	}
	if finder.calls != 1 {
		t.Errorf("finder invoked %d times", finder.calls)
	}
	if !store.trips[tr.ID].IsActive {
		t.Error("active flag not persisted")
	}

	if _, _, err := svc.Start(context.Background(), tr.ID, "alice"); err != ErrActive {
		t.Fatalf("expected ErrActive on double start, got %v", err)
	}
	if finder.calls != 1 {
		t.Errorf("finder re-invoked on rejected start: %d calls", finder.calls)
	}
}

func TestEnd(t *testing.T) {
	store := newFakeTripStore()
	svc := newTestTripService(store, &fakeFinder{}, nil)

	tr, _ := svc.Create(context.Background(), CreateCommand{
		UserID: "alice", Destination: "Kyoto",
		StartDate: day("2024-04-01"), EndDate: day("2024-04-10"),
	})

	if _, err := svc.End(context.Background(), tr.ID, "alice"); err != ErrInactive {
		t.Fatalf("expected ErrInactive before start, got %v", err)
	}

	if _, _, err := svc.Start(context.Background(), tr.ID, "alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ended, err := svc.End(context.Background(), tr.ID, "alice")
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if ended.IsActive {
		t.Error("trip still active after end")
	}
}
