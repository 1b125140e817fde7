// README: Route service loads a landscaper's day, optimizes it, and persists accepted sequences.
package route

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"greenroute/internal/config"
	"greenroute/internal/geo"
	"greenroute/internal/observability"
	"greenroute/internal/types"
)

type StopStore interface {
	ListStops(ctx context.Context, landscaperID types.ID, day time.Time) ([]RoutePoint, error)
	UpdateSequence(ctx context.Context, jobID types.ID, sequence int) error
}

// Geocoder fills in coordinates for stops saved with an address only.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Point, error)
}

// Estimator returns road driving minutes for visiting points in order.
type Estimator interface {
	DriveMinutes(ctx context.Context, points []geo.Point) (float64, error)
}

type Service struct {
	store     StopStore
	geocoder  Geocoder
	estimator Estimator
	opts      Options
	metrics   *observability.Instruments
	log       *slog.Logger
}

type ServiceDeps struct {
	Store     StopStore
	Geocoder  Geocoder  // optional
	Estimator Estimator // optional
	Metrics   *observability.Instruments
	Logger    *slog.Logger
}

func NewService(deps ServiceDeps, cfg config.RouteConfig) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     deps.Store,
		geocoder:  deps.Geocoder,
		estimator: deps.Estimator,
		opts:      Options{AvgSpeedMPH: cfg.AvgSpeedMPH, MaxPasses: cfg.MaxPasses},
		metrics:   deps.Metrics,
		log:       logger.With("component", "route"),
	}
}

// Optimize runs the optimizer with the service's configured options.
func (s *Service) Optimize(ctx context.Context, stops []RoutePoint) RouteAnalysis {
	analysis := Optimize(stops, s.opts)
	s.metrics.RouteOptimized(ctx, analysis.DistanceSaved)
	return analysis
}

// OptimizeDay loads the landscaper's stops for day and returns a proposed
// ordering. Nothing is persisted; see Apply.
func (s *Service) OptimizeDay(ctx context.Context, landscaperID types.ID, day time.Time) (*DayPlan, error) {
	if landscaperID == "" {
		return nil, ErrBadRequest
	}
	stops, err := s.store.ListStops(ctx, landscaperID, day)
	if err != nil {
		return nil, fmt.Errorf("optimize day: list stops for %s: %w", landscaperID, err)
	}

	usable := make([]RoutePoint, 0, len(stops))
	var skipped []RoutePoint
	for _, stop := range stops {
		if !hasCoordinates(stop) {
			stop = s.geocode(ctx, stop)
		}
		if !hasCoordinates(stop) {
			// Skipped stops report (0,0); NaN cannot be encoded as JSON.
			stop.Latitude, stop.Longitude = 0, 0
			skipped = append(skipped, stop)
			continue
		}
		usable = append(usable, stop)
	}
	if len(skipped) > 0 {
		s.log.Warn("stops without coordinates skipped",
			"landscaper_id", landscaperID, "skipped", len(skipped), "usable", len(usable))
	}

	plan := &DayPlan{
		LandscaperID: landscaperID,
		Analysis:     s.Optimize(ctx, usable),
		Skipped:      skipped,
	}

	if s.estimator != nil && len(plan.Analysis.OptimizedRoute) >= 2 {
		points := make([]geo.Point, len(plan.Analysis.OptimizedRoute))
		for i, p := range plan.Analysis.OptimizedRoute {
			points[i] = p.Point()
		}
		minutes, err := s.estimator.DriveMinutes(ctx, points)
		if err != nil {
			s.log.Warn("road estimate failed", "landscaper_id", landscaperID, "err", err)
		} else {
			plan.RoadMinutes = &minutes
		}
	}
	return plan, nil
}

// Apply persists each stop's SequenceOrder one job at a time. It stops at the
// first failure and returns how many stops were written before it.
func (s *Service) Apply(ctx context.Context, stops []RoutePoint) (int, error) {
	if err := validateSequence(stops); err != nil {
		return 0, err
	}
	for i, stop := range stops {
		if err := s.store.UpdateSequence(ctx, stop.ID, stop.SequenceOrder); err != nil {
			return i, fmt.Errorf("apply route: job %s: %w", stop.ID, err)
		}
	}
	return len(stops), nil
}

// ApplyDay is Apply restricted to jobs on the landscaper's schedule for day.
// Any stop outside that schedule fails the whole request with ErrJobNotFound
// before anything is written.
func (s *Service) ApplyDay(ctx context.Context, landscaperID types.ID, day time.Time, stops []RoutePoint) (int, error) {
	if landscaperID == "" {
		return 0, ErrBadRequest
	}
	if err := validateSequence(stops); err != nil {
		return 0, err
	}
	current, err := s.store.ListStops(ctx, landscaperID, day)
	if err != nil {
		return 0, fmt.Errorf("apply route: list stops for %s: %w", landscaperID, err)
	}
	owned := make(map[types.ID]bool, len(current))
	for _, c := range current {
		owned[c.ID] = true
	}
	for _, stop := range stops {
		if !owned[stop.ID] {
			return 0, fmt.Errorf("apply route: job %s: %w", stop.ID, ErrJobNotFound)
		}
	}
	return s.Apply(ctx, stops)
}

func (s *Service) geocode(ctx context.Context, stop RoutePoint) RoutePoint {
	if s.geocoder == nil || stop.Address == "" {
		return stop
	}
	p, err := s.geocoder.Geocode(ctx, stop.Address)
	if err != nil {
		s.log.Warn("geocode failed", "job_id", stop.ID, "err", err)
		return stop
	}
	stop.Latitude, stop.Longitude = p.Lat, p.Lng
	return stop
}

// hasCoordinates treats (0,0) as unset, matching how rows without a geocode
// were historically saved.
func hasCoordinates(p RoutePoint) bool {
	if p.Latitude == 0 && p.Longitude == 0 {
		return false
	}
	return p.Point().Valid()
}

func validateSequence(stops []RoutePoint) error {
	if len(stops) == 0 {
		return ErrBadRequest
	}
	seen := make([]bool, len(stops)+1)
	for _, s := range stops {
		if s.ID == "" {
			return ErrBadRequest
		}
		if s.SequenceOrder < 1 || s.SequenceOrder > len(stops) || seen[s.SequenceOrder] {
			return ErrInvalidSequence
		}
		seen[s.SequenceOrder] = true
	}
	return nil
}
