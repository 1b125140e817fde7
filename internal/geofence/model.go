// README: Geofence shapes, location samples, and dwell events.
package geofence

import (
	"errors"
	"time"

	"greenroute/internal/geo"
	"greenroute/internal/types"
)

var (
	ErrMissingParams       = errors.New("job id, landscaper id and at least one geofence are required")
	ErrAlreadyStarted      = errors.New("monitor already started")
	ErrNotTracking         = errors.New("monitor is not tracking")
	ErrStaleSample         = errors.New("location sample is stale")
	ErrInaccurateSample    = errors.New("location sample accuracy too low")
	ErrInvalidSample       = errors.New("location sample has invalid coordinates")
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("location unavailable")
)

// Geofence is a circle around Center, or a polygon when Polygon has at least
// three vertices. A zero radius means the monitor's default radius.
type Geofence struct {
	ID           types.ID    `json:"id"`
	JobID        types.ID    `json:"job_id"`
	Center       geo.Point   `json:"center"`
	RadiusMeters float64     `json:"radius_meters"`
	Polygon      []geo.Point `json:"polygon,omitempty"`
}

func (g Geofence) Contains(p geo.Point, defaultRadiusMeters float64) bool {
	if len(g.Polygon) >= 3 {
		return geo.ContainsPolygon(g.Polygon, p)
	}
	r := g.RadiusMeters
	if r <= 0 {
		r = defaultRadiusMeters
	}
	return geo.ContainsCircle(g.Center, r, p)
}

// Sample is one reading from the device's location watch. Accuracy is in
// meters; zero means unknown.
type Sample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

func (s Sample) Point() geo.Point {
	return geo.Point{Lat: s.Latitude, Lng: s.Longitude}
}

// DwellTime tracks one occupied geofence.
type DwellTime struct {
	GeofenceID   types.ID  `json:"geofence_id"`
	EnteredAt    time.Time `json:"entered_at"`
	DwellSeconds float64   `json:"dwell_seconds"`
}

type EventType string

const (
	EventEntry          EventType = "entry"
	EventExit           EventType = "exit"
	EventDwellThreshold EventType = "dwell_threshold"
	EventError          EventType = "error"
)

type Event struct {
	Type         EventType     `json:"type"`
	JobID        types.ID      `json:"job_id"`
	LandscaperID types.ID      `json:"landscaper_id"`
	GeofenceID   types.ID      `json:"geofence_id,omitempty"`
	Location     geo.Point     `json:"location"`
	Dwell        time.Duration `json:"dwell,omitempty"`
	At           time.Time     `json:"at"`
	Err          string        `json:"error,omitempty"`
}

// Record is the row handed to the persistence sink on entry and exit.
type Record struct {
	JobID        types.ID
	LandscaperID types.ID
	Latitude     float64
	Longitude    float64
	EventType    EventType
	RecordedAt   time.Time
}

// Status is a point-in-time copy of a monitor's state.
type Status struct {
	Tracking   bool        `json:"tracking"`
	Error      string      `json:"error,omitempty"`
	Inside     []types.ID  `json:"inside"`
	Dwell      []DwellTime `json:"dwell"`
	LastSample *Sample     `json:"last_sample,omitempty"`
}
