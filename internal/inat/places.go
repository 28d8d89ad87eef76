package inat

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/JakeFAU/inat-harvester/internal/harvest"
)

// placeTypePriority orders the administrative kinds considered first when
// picking a place candidate.
var placeTypePriority = []harvest.PlaceType{
	harvest.PlaceTypeCountry,
	harvest.PlaceTypeState,
	harvest.PlaceTypeCounty,
	harvest.PlaceTypeProvince,
}

var folder = cases.Fold()

type placesResponse struct {
	TotalResults int             `json:"total_results"`
	Results      []harvest.Place `json:"results"`
}

// ResolvePlace maps a free-text place name to a place using the autocomplete
// endpoint and SelectPlace. It returns ErrNotFound when no candidate exists.
func (c *Client) ResolvePlace(ctx context.Context, name string) (harvest.Place, error) {
	key := lookupKey("place", name)
	if cached, ok := c.lookups.Get(key); ok {
		if place, ok := cached.(harvest.Place); ok {
			return place, nil
		}
	}

	params := url.Values{}
	params.Set("q", name)

	var resp placesResponse
	if err := c.getJSON(ctx, "places/autocomplete", params, &resp); err != nil {
		return harvest.Place{}, fmt.Errorf("search place %q: %w", name, err)
	}
	place, ok := SelectPlace(name, resp.Results)
	if !ok {
		return harvest.Place{}, fmt.Errorf("place %q: %w", name, ErrNotFound)
	}

	c.lookups.SetDefault(key, place)
	c.logger.Info("resolved place",
		zap.String("query", name),
		zap.String("name", place.Name),
		zap.String("place_type", string(place.PlaceType)),
		zap.Int64("place_id", place.ID))
	return place, nil
}

// SelectPlace picks the best candidate for query. Candidates of a ranked
// place type whose name contains the query win, in priority order; then an
// exact name match; then the first candidate.
func SelectPlace(query string, candidates []harvest.Place) (harvest.Place, bool) {
	if len(candidates) == 0 {
		return harvest.Place{}, false
	}
	needle := fold(strings.TrimSpace(query))

	for _, kind := range placeTypePriority {
		for _, candidate := range candidates {
			if candidate.PlaceType == kind && strings.Contains(fold(candidate.Name), needle) {
				return candidate, true
			}
		}
	}
	for _, candidate := range candidates {
		if fold(candidate.Name) == needle {
			return candidate, true
		}
	}
	return candidates[0], true
}

// lookupKey is the memo key shared by the resolvers.
func lookupKey(kind, name string) string {
	return kind + ":" + fold(strings.TrimSpace(name))
}

func fold(s string) string {
	return folder.String(s)
}
