// README: Google Places implementation of the catalog.
package places

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"wander/internal/geo"
	"wander/internal/types"
)

const searchTimeout = 5 * time.Second

// kindQueries maps a catalog kind to the Places API search parameters.
// The maps package exports no constant for point_of_interest; the API
// accepts it as a plain type string.
var kindQueries = map[Kind]struct {
	placeType maps.PlaceType
	keyword   string
}{
	KindFamousPlace: {placeType: maps.PlaceTypeTouristAttraction},
	KindHiddenGem:   {keyword: "hidden gem"},
	KindTouristTrap: {placeType: maps.PlaceTypeTouristAttraction, keyword: "tourist trap"},
	KindActivity:    {placeType: maps.PlaceType("point_of_interest"), keyword: "things to do"},
}

// GooglePlaces handles interactions with Google Places API.
type GooglePlaces struct {
	client *maps.Client
}

// NewGooglePlaces creates a catalog backed by the given API key.
func NewGooglePlaces(apiKey string) (*GooglePlaces, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GooglePlaces{client: client}, nil
}

func (g *GooglePlaces) FindNear(ctx context.Context, center types.Point, radiusKm float64, kind Kind) ([]Place, error) {
	q, ok := kindQueries[kind]
	if !ok {
		return nil, fmt.Errorf("unknown place kind %q", kind)
	}

	resp, err := g.search(ctx, center, radiusKm, q.placeType, q.keyword)
	if err != nil {
		return nil, err
	}

	results := make([]Place, 0, len(resp))
	for _, r := range resp {
		p := fromSearchResult(r, kind, center)
		if p.DistanceM <= radiusKm*1000 {
			results = append(results, p)
		}
	}
	geo.SortByDistance(results, func(p Place) float64 { return p.DistanceM })
	return results, nil
}

func (g *GooglePlaces) Nearest(ctx context.Context, center types.Point, radiusKm float64) (*Place, error) {
	resp, err := g.search(ctx, center, radiusKm, maps.PlaceType("point_of_interest"), "")
	if err != nil {
		return nil, err
	}

	var nearest *Place
	for _, r := range resp {
		p := fromSearchResult(r, KindFamousPlace, center)
		if p.DistanceM > radiusKm*1000 {
			continue
		}
		if nearest == nil || p.DistanceM < nearest.DistanceM {
			cp := p
			nearest = &cp
		}
	}
	return nearest, nil
}

func (g *GooglePlaces) search(ctx context.Context, center types.Point, radiusKm float64, placeType maps.PlaceType, keyword string) ([]maps.PlacesSearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	req := &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: center.Lat, Lng: center.Lng},
		Radius:   uint(radiusKm * 1000),
		Type:     placeType,
		Keyword:  keyword,
	}
	resp, err := g.client.NearbySearch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}
	return resp.Results, nil
}

func fromSearchResult(r maps.PlacesSearchResult, kind Kind, center types.Point) Place {
	pos := types.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng}
	return Place{
		ID:        r.PlaceID,
		Kind:      kind,
		Name:      r.Name,
		Vicinity:  r.Vicinity,
		Position:  pos,
		DistanceM: geo.DistanceMeters(center.Lat, center.Lng, pos.Lat, pos.Lng),
	}
}
