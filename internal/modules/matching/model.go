// README: Matching candidates for customer jobs and their scored results.
package matching

import (
	"errors"

	"greenroute/internal/geo"
	"greenroute/internal/types"
)

var (
	ErrBadRequest      = errors.New("bad request")
	ErrPoolUnavailable = errors.New("landscaper pool unavailable")
)

// Score contributions. Totals are additive points, not a probability.
const (
	pointsWithin5   = 40
	pointsWithin15  = 30
	pointsWithin30  = 15
	pointsSameZIP   = 15
	pointsSpecialty = 25
	pointsRelated   = 10
	pointsRating45  = 20
	pointsRating40  = 15
	pointsResponse2 = 10
	pointsResponse6 = 7
	pointsAvailable = 5
	ConflictPenalty = 20
	defaultLimit    = 10
	defaultWorkers  = 8
)

// Criteria describes the job a customer wants matched.
type Criteria struct {
	ServiceType      string     `json:"service_type"`
	Description      string     `json:"description,omitempty"`
	Location         *geo.Point `json:"location,omitempty"`
	ZipCode          string     `json:"zip_code,omitempty"`
	MaxDistanceMiles float64    `json:"max_distance_miles,omitempty"`
}

func (c Criteria) HasLocation() bool {
	return located(c.Location)
}

// located treats (0,0) as unset, the value rows get when a geocode never ran.
func located(p *geo.Point) bool {
	return p != nil && p.Valid() && !(p.Lat == 0 && p.Lng == 0)
}

// Landscaper is a candidate's profile row.
type Landscaper struct {
	ID                   types.ID
	Name                 string
	Email                string
	Phone                string
	Specialties          []string
	Location             *geo.Point
	ZipCode              string
	Available            bool
	AvgResponseTimeHours *float64
}

// ReviewSummary aggregates a landscaper's reviews.
type ReviewSummary struct {
	AverageRating float64
	TotalReviews  int
}

// LandscaperMatch is one scored candidate. Distance is nil when either side
// has no usable coordinates.
type LandscaperMatch struct {
	ID                   types.ID `json:"id"`
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Phone                string   `json:"phone"`
	Specialties          []string `json:"specialties"`
	Rating               float64  `json:"rating"`
	TotalReviews         int      `json:"total_reviews"`
	AvgResponseTimeHours *float64 `json:"avg_response_time_hours"`
	Available            bool     `json:"available"`
	Distance             *float64 `json:"distance"`
	MatchScore           int      `json:"match_score"`
	MatchReasons         []string `json:"match_reasons"`
	HasScheduleConflict  bool     `json:"has_schedule_conflict"`
	ConflictPenalty      int      `json:"conflict_penalty"`
}
