package matching

import (
	"strings"
	"testing"

	"greenroute/internal/geo"
)

var client = geo.Point{Lat: 40.0, Lng: -75.0}

func at(dLat float64) *geo.Point {
	return &geo.Point{Lat: client.Lat + dLat, Lng: client.Lng}
}

func hours(h float64) *float64 { return &h }

func TestScore_DistanceBands(t *testing.T) {
	c := Criteria{Location: &client}
	tests := []struct {
		name string
		dLat float64
		want int
	}{
		{"under 5 miles", 0.03, pointsWithin5},
		{"under 15 miles", 0.1, pointsWithin15},
		{"under 30 miles", 0.3, pointsWithin30},
		{"far away", 1.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Score(c, Landscaper{ID: "l", Location: at(tt.dLat)}, ReviewSummary{}, 0)
			if m.MatchScore != tt.want {
				t.Errorf("score = %d, want %d (reasons %v)", m.MatchScore, tt.want, m.MatchReasons)
			}
			if m.Distance == nil {
				t.Fatal("expected a distance")
			}
		})
	}
}

func TestScore_CloserIsBetter(t *testing.T) {
	c := Criteria{ServiceType: "lawn_mowing", Location: &client}
	base := Landscaper{ID: "l", Specialties: []string{"lawn_mowing"}, Available: true}
	near, far := base, base
	near.Location = at(0.03)
	far.Location = at(1.0)

	n := Score(c, near, ReviewSummary{AverageRating: 4.8, TotalReviews: 10}, 0)
	f := Score(c, far, ReviewSummary{AverageRating: 4.8, TotalReviews: 10}, 0)
	if n.MatchScore-f.MatchScore < 15 {
		t.Errorf("near %d vs far %d: expected at least 15 points difference", n.MatchScore, f.MatchScore)
	}
}

func TestScore_ZIPFallback(t *testing.T) {
	c := Criteria{ZipCode: "19103"}
	m := Score(c, Landscaper{ID: "l", ZipCode: "19147"}, ReviewSummary{}, 0)
	if m.MatchScore != pointsSameZIP {
		t.Errorf("score = %d, want %d", m.MatchScore, pointsSameZIP)
	}
	if m.Distance != nil {
		t.Error("distance should stay unknown for a ZIP match")
	}
	if len(m.MatchReasons) != 1 || !strings.Contains(m.MatchReasons[0], "approximate") {
		t.Errorf("reasons = %v", m.MatchReasons)
	}

	m = Score(c, Landscaper{ID: "l", ZipCode: "08002"}, ReviewSummary{}, 0)
	if m.MatchScore != 0 {
		t.Errorf("different ZIP area should score 0, got %d", m.MatchScore)
	}
}

func TestScore_ZeroBaseIsUnlocated(t *testing.T) {
	c := Criteria{Location: &client, ZipCode: "19103"}
	m := Score(c, Landscaper{ID: "l", ZipCode: "19147", Location: &geo.Point{}}, ReviewSummary{}, 0)
	if m.Distance != nil {
		t.Errorf("(0,0) base should leave distance unknown, got %v", *m.Distance)
	}
	if m.MatchScore != pointsSameZIP {
		t.Errorf("score = %d, want ZIP fallback %d", m.MatchScore, pointsSameZIP)
	}
	if (Criteria{Location: &geo.Point{}}).HasLocation() {
		t.Error("criteria at (0,0) should count as missing")
	}
}

func TestScore_Specialties(t *testing.T) {
	c := Criteria{ServiceType: "Hedge_Trimming"}
	exact := Score(c, Landscaper{Specialties: []string{"lawn_mowing", "hedge_trimming"}}, ReviewSummary{}, 0)
	if exact.MatchScore != pointsSpecialty {
		t.Errorf("exact match score = %d, want %d", exact.MatchScore, pointsSpecialty)
	}
	other := Score(c, Landscaper{Specialties: []string{"irrigation"}}, ReviewSummary{}, 0)
	if other.MatchScore != pointsRelated {
		t.Errorf("related score = %d, want %d", other.MatchScore, pointsRelated)
	}
	display := Score(Criteria{ServiceType: "lawn_mowing"}, Landscaper{Specialties: []string{" Lawn Mowing", "Tree-Care"}}, ReviewSummary{}, 0)
	if display.MatchScore != pointsSpecialty {
		t.Errorf("display-name specialty score = %d, want %d", display.MatchScore, pointsSpecialty)
	}
	none := Score(c, Landscaper{}, ReviewSummary{}, 0)
	if none.MatchScore != 0 || none.Specialties == nil {
		t.Errorf("no specialties: score %d, specialties %v", none.MatchScore, none.Specialties)
	}
}

func TestScore_RatingAndResponse(t *testing.T) {
	tests := []struct {
		name    string
		reviews ReviewSummary
		resp    *float64
		want    int
	}{
		{"top rated fast", ReviewSummary{AverageRating: 4.6, TotalReviews: 3}, hours(1.5), pointsRating45 + pointsResponse2},
		{"good rated medium", ReviewSummary{AverageRating: 4.0, TotalReviews: 8}, hours(6), pointsRating40 + pointsResponse6},
		{"low rated slow", ReviewSummary{AverageRating: 3.2, TotalReviews: 8}, hours(24), 0},
		{"no reviews", ReviewSummary{AverageRating: 5, TotalReviews: 0}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Score(Criteria{}, Landscaper{AvgResponseTimeHours: tt.resp}, tt.reviews, 0)
			if m.MatchScore != tt.want {
				t.Errorf("score = %d, want %d (reasons %v)", m.MatchScore, tt.want, m.MatchReasons)
			}
		})
	}
}

func TestScore_ConflictPenalty(t *testing.T) {
	l := Landscaper{ID: "l", Available: true, Specialties: []string{"mulching"}}
	free := Score(Criteria{ServiceType: "mulching"}, l, ReviewSummary{}, 0)
	busy := Score(Criteria{ServiceType: "mulching"}, l, ReviewSummary{}, 2)

	if free.MatchScore-busy.MatchScore != ConflictPenalty {
		t.Errorf("penalty = %d, want %d", free.MatchScore-busy.MatchScore, ConflictPenalty)
	}
	if !busy.HasScheduleConflict || busy.ConflictPenalty != ConflictPenalty {
		t.Errorf("conflict flags not set: %+v", busy)
	}
	if last := busy.MatchReasons[len(busy.MatchReasons)-1]; !strings.Contains(last, "2 overlapping") {
		t.Errorf("conflict reason = %q", last)
	}
	if free.HasScheduleConflict || free.ConflictPenalty != 0 {
		t.Errorf("unexpected conflict on free candidate: %+v", free)
	}
}

func TestScore_CanGoNegative(t *testing.T) {
	m := Score(Criteria{}, Landscaper{}, ReviewSummary{}, 1)
	if m.MatchScore != -ConflictPenalty {
		t.Errorf("score = %d, want %d", m.MatchScore, -ConflictPenalty)
	}
}
