package maps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"greenroute/internal/geo"
)

// maxWaypoints is the Directions API limit on intermediate stops per request.
const maxWaypoints = 25

var ErrNoRoute = errors.New("no route found")

// RouteService handles interactions with the Google Maps Directions API.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// DriveMinutes returns the road driving time for visiting points in order.
// Routes with more than maxWaypoints intermediate stops are requested in chunks.
func (s *RouteService) DriveMinutes(ctx context.Context, points []geo.Point) (float64, error) {
	if len(points) < 2 {
		return 0, nil
	}

	total := 0.0
	for start := 0; start < len(points)-1; start += maxWaypoints + 1 {
		end := start + maxWaypoints + 1
		if end > len(points)-1 {
			end = len(points) - 1
		}
		minutes, err := s.legMinutes(ctx, points[start:end+1])
		if err != nil {
			return 0, err
		}
		total += minutes
	}
	return total, nil
}

func (s *RouteService) legMinutes(ctx context.Context, points []geo.Point) (float64, error) {
	r := &maps.DirectionsRequest{
		Origin:      latLng(points[0]),
		Destination: latLng(points[len(points)-1]),
		Mode:        maps.TravelModeDriving,
	}
	for _, p := range points[1 : len(points)-1] {
		r.Waypoints = append(r.Waypoints, latLng(p))
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, ErrNoRoute
	}

	minutes := 0.0
	for _, leg := range routes[0].Legs {
		minutes += leg.Duration.Minutes()
	}
	return minutes, nil
}

func latLng(p geo.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
