// README: Pure match scoring with human-readable reasons.
package matching

import (
	"fmt"
	"strings"

	"greenroute/internal/geo"
)

// Score rates one candidate against the criteria. conflicts is the number of
// overlapping bookings for the proposed slot, 0 when no slot was proposed.
// The result can be negative.
func Score(c Criteria, l Landscaper, r ReviewSummary, conflicts int) LandscaperMatch {
	m := LandscaperMatch{
		ID:                   l.ID,
		Name:                 l.Name,
		Email:                l.Email,
		Phone:                l.Phone,
		Specialties:          l.Specialties,
		Rating:               r.AverageRating,
		TotalReviews:         r.TotalReviews,
		AvgResponseTimeHours: l.AvgResponseTimeHours,
		Available:            l.Available,
		MatchReasons:         []string{},
	}
	if m.Specialties == nil {
		m.Specialties = []string{}
	}

	add := func(points int, reason string) {
		m.MatchScore += points
		m.MatchReasons = append(m.MatchReasons, reason)
	}

	if d, ok := distanceTo(c, l); ok {
		m.Distance = &d
		switch {
		case d <= 5:
			add(pointsWithin5, fmt.Sprintf("Within 5 miles (%.1f mi)", d))
		case d <= 15:
			add(pointsWithin15, fmt.Sprintf("Within 15 miles (%.1f mi)", d))
		case d <= 30:
			add(pointsWithin30, fmt.Sprintf("Within 30 miles (%.1f mi)", d))
		}
	} else if geo.SameZIPArea(c.ZipCode, l.ZipCode) {
		add(pointsSameZIP, "Same ZIP area (approximate distance)")
	}

	if len(l.Specialties) > 0 {
		if hasSpecialty(l.Specialties, c.ServiceType) {
			add(pointsSpecialty, "Specializes in "+c.ServiceType)
		} else {
			add(pointsRelated, "Offers related landscaping services")
		}
	}

	if r.TotalReviews > 0 {
		switch {
		case r.AverageRating >= 4.5:
			add(pointsRating45, fmt.Sprintf("Highly rated (%.1f from %d reviews)", r.AverageRating, r.TotalReviews))
		case r.AverageRating >= 4.0:
			add(pointsRating40, fmt.Sprintf("Well rated (%.1f from %d reviews)", r.AverageRating, r.TotalReviews))
		}
	}

	if h := l.AvgResponseTimeHours; h != nil {
		switch {
		case *h <= 2:
			add(pointsResponse2, "Usually responds within 2 hours")
		case *h <= 6:
			add(pointsResponse6, "Usually responds within 6 hours")
		}
	}

	if l.Available {
		add(pointsAvailable, "Available now")
	}

	if conflicts > 0 {
		m.HasScheduleConflict = true
		m.ConflictPenalty = ConflictPenalty
		noun := "job"
		if conflicts > 1 {
			noun = "jobs"
		}
		add(-ConflictPenalty, fmt.Sprintf("Schedule conflict: %d overlapping %s", conflicts, noun))
	}
	return m
}

func distanceTo(c Criteria, l Landscaper) (float64, bool) {
	if !c.HasLocation() || !located(l.Location) {
		return 0, false
	}
	return geo.Between(*c.Location, *l.Location), true
}

// hasSpecialty compares in catalog form, so "Lawn Mowing" matches lawn_mowing.
func hasSpecialty(specialties []string, service string) bool {
	service = specialtyKey(service)
	if service == "" {
		return false
	}
	for _, s := range specialties {
		if specialtyKey(s) == service {
			return true
		}
	}
	return false
}

func specialtyKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
