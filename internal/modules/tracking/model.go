// README: Tracking sessions tie a geofence monitor to a job visit.
package tracking

import (
	"errors"
	"time"

	"greenroute/internal/geofence"
	"greenroute/internal/types"
)

var (
	ErrBadRequest      = errors.New("bad request")
	ErrSessionNotFound = errors.New("tracking session not found")
	ErrNoGeofences     = errors.New("job has no geofence or location")
	ErrSessionActive   = errors.New("landscaper already has an active session for this job")
)

// EventsChannel is the Redis pub/sub channel carrying geofence events.
const EventsChannel = "tracking:events"

type Session struct {
	ID           string    `json:"id"`
	JobID        types.ID  `json:"job_id"`
	LandscaperID types.ID  `json:"landscaper_id"`
	StartedAt    time.Time `json:"started_at"`
}

type SessionStatus struct {
	Session
	geofence.Status
}

// ArrivalNotice is sent to the customer once a landscaper has dwelled on site.
type ArrivalNotice struct {
	JobID        types.ID
	LandscaperID types.ID
	DwellSeconds float64
}
