// README: Route stops and the immutable result of a route optimization.
package route

import (
	"errors"

	"greenroute/internal/geo"
	"greenroute/internal/types"
)

var (
	ErrBadRequest      = errors.New("bad request")
	ErrInvalidSequence = errors.New("sequence orders must be a permutation of 1..n")
	ErrJobNotFound     = errors.New("job not found")
)

// RoutePoint is one job stop on a landscaper's day.
type RoutePoint struct {
	ID            types.ID `json:"id" yaml:"id"`
	Latitude      float64  `json:"latitude" yaml:"latitude"`
	Longitude     float64  `json:"longitude" yaml:"longitude"`
	Address       string   `json:"address" yaml:"address"`
	Name          string   `json:"name" yaml:"name"`
	Duration      int      `json:"duration" yaml:"duration"` // minutes on site
	SequenceOrder int      `json:"sequence_order" yaml:"sequence_order"`
}

func (p RoutePoint) Point() geo.Point {
	return geo.Point{Lat: p.Latitude, Lng: p.Longitude}
}

// RouteAnalysis is created fresh per Optimize call and never mutated.
type RouteAnalysis struct {
	OptimizedRoute    []RoutePoint `json:"optimized_route"`
	OriginalDistance  float64      `json:"original_distance"`
	OptimizedDistance float64      `json:"optimized_distance"`
	DistanceSaved     float64      `json:"distance_saved"`
	TimeSaved         float64      `json:"time_saved"` // minutes
	Savings           float64      `json:"savings"`    // percent of OriginalDistance
}

// DayPlan is a landscaper's optimized day as loaded from the job store.
type DayPlan struct {
	LandscaperID types.ID      `json:"landscaper_id"`
	Analysis     RouteAnalysis `json:"analysis"`
	// Skipped holds stops that had no usable coordinates, in their original order.
	Skipped     []RoutePoint `json:"skipped"`
	RoadMinutes *float64     `json:"road_minutes,omitempty"`
}

const (
	defaultAvgSpeedMPH = 30.0
	defaultMaxPasses   = 8
	// improvementEpsilon is the minimum gain (miles) for a 2-opt move to count.
	improvementEpsilon = 1e-9
)

// Options tunes the optimizer. Zero values fall back to defaults.
type Options struct {
	AvgSpeedMPH float64
	MaxPasses   int
}

func (o Options) withDefaults() Options {
	if o.AvgSpeedMPH <= 0 {
		o.AvgSpeedMPH = defaultAvgSpeedMPH
	}
	if o.MaxPasses <= 0 {
		o.MaxPasses = defaultMaxPasses
	}
	return o
}
