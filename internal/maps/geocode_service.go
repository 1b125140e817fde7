package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"greenroute/internal/geo"
)

var ErrNoGeocodeResult = errors.New("no geocode result")

// GeocodeService resolves job addresses that were saved without coordinates.
type GeocodeService struct {
	client *maps.Client
	region string
}

// NewGeocodeService creates a GeocodeService biased to the given region code (e.g. "us").
func NewGeocodeService(apiKey, region string) (*GeocodeService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client, region: region}, nil
}

// Geocode returns the first result's location for address.
func (s *GeocodeService) Geocode(ctx context.Context, address string) (geo.Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return geo.Point{}, ErrNoGeocodeResult
	}

	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  s.region,
	})
	if err != nil {
		return geo.Point{}, fmt.Errorf("geocode api error: %w", err)
	}
	if len(results) == 0 {
		return geo.Point{}, ErrNoGeocodeResult
	}

	loc := results[0].Geometry.Location
	return geo.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
