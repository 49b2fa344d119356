// README: Hotspot detection and notification tests over in-memory fakes.
package hotspot

import (
	"context"
	"strings"
	"testing"
	"time"

	"wander/internal/config"
	"wander/internal/logger"
	"wander/internal/modules/location"
	"wander/internal/modules/suggestion"
	"wander/internal/modules/trip"
	"wander/internal/types"
)

func testConfig() config.HotspotConfig {
	return config.HotspotConfig{
		MinUsers:              2,
		ClusterRadiusKm:       0.1,
		NotificationRadiusKm:  1.5,
		ActivityWindowMinutes: 30,
		ExpiryMinutes:         60,
	}
}

type fakeHotspotStore struct {
	hotspots map[types.ID]*Hotspot
}

func newFakeHotspotStore() *fakeHotspotStore {
	return &fakeHotspotStore{hotspots: make(map[types.ID]*Hotspot)}
}

func (f *fakeHotspotStore) Create(_ context.Context, h *Hotspot) error {
	cp := *h
	f.hotspots[h.ID] = &cp
	return nil
}

func (f *fakeHotspotStore) Refresh(_ context.Context, h *Hotspot) error {
	if _, ok := f.hotspots[h.ID]; !ok {
		return ErrNotFound
	}
	cp := *h
	f.hotspots[h.ID] = &cp
	return nil
}

func (f *fakeHotspotStore) ListActive(_ context.Context, now time.Time) ([]Hotspot, error) {
	var out []Hotspot
	for _, h := range f.hotspots {
		if !h.ExpiresAt.Before(now) {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (f *fakeHotspotStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, h := range f.hotspots {
		if h.ExpiresAt.Before(now) {
			delete(f.hotspots, id)
			n++
		}
	}
	return n, nil
}

type fakeTripDir struct {
	activeByUser map[types.ID]*trip.Trip
}

func (f *fakeTripDir) ActiveTrip(_ context.Context, user types.ID, _ time.Time) (*trip.Trip, error) {
	t, ok := f.activeByUser[user]
	if !ok {
		return nil, trip.ErrNotFound
	}
	return t, nil
}

func (f *fakeTripDir) ActiveTripUserIDs(_ context.Context, _ time.Time) ([]types.ID, error) {
	out := make([]types.ID, 0, len(f.activeByUser))
	for u := range f.activeByUser {
		out = append(out, u)
	}
	return out, nil
}

type fakeSamples struct {
	samples []*location.Sample
}

func (f *fakeSamples) MostRecentPerUser(_ context.Context, users []types.ID, since time.Time) ([]*location.Sample, error) {
	wanted := make(map[types.ID]struct{}, len(users))
	for _, u := range users {
		wanted[u] = struct{}{}
	}
	var out []*location.Sample
	for _, s := range f.samples {
		if _, ok := wanted[s.UserID]; ok && !s.RecordedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeSuggestionLog struct {
	created []*suggestion.Suggestion
	recent  bool
}

func (f *fakeSuggestionLog) Create(_ context.Context, s *suggestion.Suggestion) error {
	cp := *s
	f.created = append(f.created, &cp)
	return nil
}

func (f *fakeSuggestionLog) HasRecentOfType(_ context.Context, _, _ types.ID, _ string, _ *string, _ time.Time) (bool, error) {
	return f.recent, nil
}

type fakeFriends struct {
	friends map[types.ID][]types.ID
	names   map[types.ID]string
}

func (f *fakeFriends) FriendsOf(_ context.Context, user types.ID) ([]types.ID, error) {
	return f.friends[user], nil
}

func (f *fakeFriends) DisplayNames(_ context.Context, users []types.ID) (map[types.ID]string, error) {
	out := make(map[types.ID]string, len(users))
	for _, u := range users {
		if name, ok := f.names[u]; ok {
			out[u] = name
		}
	}
	return out, nil
}

// latOffsetKm shifts a latitude north by roughly km kilometers.
func latOffsetKm(lat, km float64) float64 {
	return lat + km/111.32
}

func sampleAt(user types.ID, lat, lng float64, at time.Time) *location.Sample {
	return &location.Sample{
		UserID:     user,
		Position:   types.Point{Lat: lat, Lng: lng},
		RecordedAt: at,
	}
}

type detectorFixture struct {
	store       *fakeHotspotStore
	trips       *fakeTripDir
	samples     *fakeSamples
	suggestions *fakeSuggestionLog
	friends     *fakeFriends
	detector    *Detector
}

func newFixture() *detectorFixture {
	fx := &detectorFixture{
		store:       newFakeHotspotStore(),
		trips:       &fakeTripDir{activeByUser: map[types.ID]*trip.Trip{}},
		samples:     &fakeSamples{},
		suggestions: &fakeSuggestionLog{},
		friends:     &fakeFriends{friends: map[types.ID][]types.ID{}, names: map[types.ID]string{}},
	}
	fx.detector = NewDetector(testConfig(), fx.store, fx.trips, fx.samples, nil,
		fx.suggestions, fx.friends, nil, logger.Nop())
	return fx
}

func (fx *detectorFixture) addActiveUser(user types.ID, tripID types.ID) {
	fx.trips.activeByUser[user] = &trip.Trip{ID: tripID, UserID: user, IsActive: true}
}

const baseLat, baseLng = 48.8584, 2.2945

func TestDetectAndNotify_ClustersTravelers(t *testing.T) {
	fx := newFixture()
	now := time.Now()

	// Three users within ~50m of each other, a fourth far away.
	fx.addActiveUser("a", "ta")
	fx.addActiveUser("b", "tb")
	fx.addActiveUser("c", "tc")
	fx.addActiveUser("loner", "tl")
	fx.samples.samples = []*location.Sample{
		sampleAt("a", baseLat, baseLng, now),
		sampleAt("b", latOffsetKm(baseLat, 0.03), baseLng, now),
		sampleAt("c", latOffsetKm(baseLat, 0.05), baseLng, now),
		sampleAt("loner", latOffsetKm(baseLat, 10), baseLng, now),
	}

	// Reporter has no active trip, so no notification; clustering still runs.
	if _, err := fx.detector.DetectAndNotify(context.Background(), "observer", types.Point{Lat: baseLat, Lng: baseLng}, now); err != nil {
		t.Fatalf("DetectAndNotify: %v", err)
	}

	if len(fx.store.hotspots) != 1 {
		t.Fatalf("expected 1 hotspot, got %d", len(fx.store.hotspots))
	}
	for _, h := range fx.store.hotspots {
		if h.UserCount != 3 {
			t.Errorf("expected 3 clustered users, got %d", h.UserCount)
		}
		if len(h.ActiveUsers) != 3 {
			t.Errorf("unexpected active users %v", h.ActiveUsers)
		}
		if !h.ExpiresAt.After(now) {
			t.Error("hotspot expiry not in the future")
		}
	}
}

func TestDetectAndNotify_NotifiesUserPassingNearby(t *testing.T) {
	fx := newFixture()
	now := time.Now()

	fx.addActiveUser("a", "ta")
	fx.addActiveUser("b", "tb")
	fx.addActiveUser("walker", "tw")
	fx.samples.samples = []*location.Sample{
		sampleAt("a", baseLat, baseLng, now),
		sampleAt("b", latOffsetKm(baseLat, 0.03), baseLng, now),
	}

	// Walker is ~800m away: outside the cluster, inside the notification
	// radius.
	pos := types.Point{Lat: latOffsetKm(baseLat, 0.8), Lng: baseLng}
	sg, err := fx.detector.DetectAndNotify(context.Background(), "walker", pos, now)
	if err != nil {
		t.Fatalf("DetectAndNotify: %v", err)
	}
	if sg == nil {
		t.Fatal("expected a hotspot notification")
	}
	if sg.Type != suggestion.TypeHotspot {
		t.Errorf("unexpected type %s", sg.Type)
	}
	if sg.UserID != "walker" || sg.TripID != "tw" {
		t.Errorf("notification misaddressed: user=%s trip=%s", sg.UserID, sg.TripID)
	}
	if sg.HotspotUserCount == nil || *sg.HotspotUserCount != 2 {
		t.Errorf("unexpected user count %v", sg.HotspotUserCount)
	}
	if !strings.Contains(sg.Content, "2 travelers") {
		t.Errorf("unexpected content %q", sg.Content)
	}
	if len(fx.suggestions.created) != 1 {
		t.Errorf("notification not persisted: %d", len(fx.suggestions.created))
	}
}

func TestDetectAndNotify_NamesFriendsInHotspot(t *testing.T) {
	fx := newFixture()
	now := time.Now()

	fx.addActiveUser("a", "ta")
	fx.addActiveUser("b", "tb")
	fx.addActiveUser("walker", "tw")
	fx.samples.samples = []*location.Sample{
		sampleAt("a", baseLat, baseLng, now),
		sampleAt("b", latOffsetKm(baseLat, 0.03), baseLng, now),
	}
	fx.friends.friends["walker"] = []types.ID{"a"}
	fx.friends.names["a"] = "Ana"

	pos := types.Point{Lat: latOffsetKm(baseLat, 0.8), Lng: baseLng}
	sg, err := fx.detector.DetectAndNotify(context.Background(), "walker", pos, now)
	if err != nil {
		t.Fatalf("DetectAndNotify: %v", err)
	}
	if sg == nil {
		t.Fatal("expected a notification")
	}
	if len(sg.HotspotFriendNames) != 1 || sg.HotspotFriendNames[0] != "Ana" {
		t.Errorf("unexpected friend names %v", sg.HotspotFriendNames)
	}
	if !strings.Contains(sg.Title, "Friends") {
		t.Errorf("expected friend-flavored title, got %q", sg.Title)
	}
	if !strings.Contains(sg.Content, "Ana") {
		t.Errorf("friend name missing from content %q", sg.Content)
	}
}

func TestDetectAndNotify_SuppressedInsideCluster(t *testing.T) {
	fx := newFixture()
	now := time.Now()

	fx.addActiveUser("a", "ta")
	fx.addActiveUser("b", "tb")
	fx.addActiveUser("walker", "tw")
	fx.samples.samples = []*location.Sample{
		sampleAt("a", baseLat, baseLng, now),
		sampleAt("b", latOffsetKm(baseLat, 0.03), baseLng, now),
	}

	// Walker is standing in the hotspot itself.
	pos := types.Point{Lat: latOffsetKm(baseLat, 0.02), Lng: baseLng}
	sg, err := fx.detector.DetectAndNotify(context.Background(), "walker", pos, now)
	if err != nil {
		t.Fatalf("DetectAndNotify: %v", err)
	}
	if sg != nil {
		t.Fatalf("expected no notification inside the cluster, got %+v", sg)
	}
}

func TestDetectAndNotify_NoActiveTripNoNotification(t *testing.T) {
	fx := newFixture()
	now := time.Now()

	fx.addActiveUser("a", "ta")
	fx.addActiveUser("b", "tb")
	fx.samples.samples = []*location.Sample{
		sampleAt("a", baseLat, baseLng, now),
		sampleAt("b", latOffsetKm(baseLat, 0.03), baseLng, now),
	}

	pos := types.Point{Lat: latOffsetKm(baseLat, 0.8), Lng: baseLng}
	sg, err := fx.detector.DetectAndNotify(context.Background(), "walker", pos, now)
	if err != nil {
		t.Fatalf("DetectAndNotify: %v", err)
	}
	if sg != nil {
		t.Fatal("notification created for user without active trip")
	}
}

func TestDetectAndNotify_DedupWindow(t *testing.T) {
	fx := newFixture()
	now := time.Now()

	fx.addActiveUser("a", "ta")
	fx.addActiveUser("b", "tb")
	fx.addActiveUser("walker", "tw")
	fx.samples.samples = []*location.Sample{
		sampleAt("a", baseLat, baseLng, now),
		sampleAt("b", latOffsetKm(baseLat, 0.03), baseLng, now),
	}
	fx.suggestions.recent = true

	pos := types.Point{Lat: latOffsetKm(baseLat, 0.8), Lng: baseLng}
	sg, err := fx.detector.DetectAndNotify(context.Background(), "walker", pos, now)
	if err != nil {
		t.Fatalf("DetectAndNotify: %v", err)
	}
	if sg != nil {
		t.Fatal("notification repeated inside the dedup window")
	}
	if len(fx.suggestions.created) != 0 {
		t.Errorf("duplicate persisted: %d", len(fx.suggestions.created))
	}
}

func TestDetectAndNotify_RefreshesExistingHotspot(t *testing.T) {
	fx := newFixture()
	now := time.Now()

	existing := &Hotspot{
		ID:            "h1",
		Center:        types.Point{Lat: baseLat, Lng: baseLng},
		UserCount:     2,
		ActiveUsers:   []types.ID{"a", "b"},
		FirstDetected: now.Add(-20 * time.Minute),
		LastActivity:  now.Add(-20 * time.Minute),
		ExpiresAt:     now.Add(40 * time.Minute),
	}
	fx.store.hotspots[existing.ID] = existing

	fx.addActiveUser("a", "ta")
	fx.addActiveUser("b", "tb")
	fx.addActiveUser("c", "tc")
	fx.samples.samples = []*location.Sample{
		sampleAt("a", baseLat, baseLng, now),
		sampleAt("b", latOffsetKm(baseLat, 0.03), baseLng, now),
		sampleAt("c", latOffsetKm(baseLat, 0.05), baseLng, now),
	}

	if _, err := fx.detector.DetectAndNotify(context.Background(), "observer", types.Point{Lat: baseLat, Lng: baseLng}, now); err != nil {
		t.Fatalf("DetectAndNotify: %v", err)
	}

	if len(fx.store.hotspots) != 1 {
		t.Fatalf("expected the existing hotspot to be refreshed, got %d hotspots", len(fx.store.hotspots))
	}
	h := fx.store.hotspots["h1"]
	if h.UserCount != 3 {
		t.Errorf("user count not refreshed: %d", h.UserCount)
	}
	if !h.LastActivity.Equal(now) {
		t.Errorf("last activity not refreshed: %v", h.LastActivity)
	}
	if !h.ExpiresAt.Equal(now.Add(60 * time.Minute)) {
		t.Errorf("expiry not extended: %v", h.ExpiresAt)
	}
}

func TestDetectAndNotify_DropsExpiredHotspots(t *testing.T) {
	fx := newFixture()
	now := time.Now()

	fx.store.hotspots["stale"] = &Hotspot{
		ID:        "stale",
		Center:    types.Point{Lat: baseLat, Lng: baseLng},
		UserCount: 5,
		ExpiresAt: now.Add(-time.Minute),
	}

	sg, err := fx.detector.DetectAndNotify(context.Background(), "walker", types.Point{Lat: baseLat, Lng: baseLng}, now)
	if err != nil {
		t.Fatalf("DetectAndNotify: %v", err)
	}
	if sg != nil {
		t.Fatal("expired hotspot still produced a notification")
	}
	if len(fx.store.hotspots) != 0 {
		t.Errorf("expired hotspot not removed: %d left", len(fx.store.hotspots))
	}
}
