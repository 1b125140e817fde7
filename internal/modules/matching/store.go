// README: Candidate pool and review aggregates backed by PostgreSQL.
package matching

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"greenroute/internal/geo"
	"greenroute/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ListCandidates returns active landscapers in a stable order.
func (s *Store) ListCandidates(ctx context.Context) ([]Landscaper, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''),
		       COALESCE(specialties, '{}'), base_latitude, base_longitude,
		       COALESCE(zip_code, ''), available, avg_response_time_hours
		FROM landscapers
		WHERE active
		ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Landscaper
	for rows.Next() {
		var l Landscaper
		var lat, lng *float64
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Specialties,
			&lat, &lng, &l.ZipCode, &l.Available, &l.AvgResponseTimeHours); err != nil {
			return nil, err
		}
		if lat != nil && lng != nil {
			l.Location = &geo.Point{Lat: *lat, Lng: *lng}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) ReviewSummary(ctx context.Context, landscaperID types.ID) (ReviewSummary, error) {
	var r ReviewSummary
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
		FROM reviews
		WHERE landscaper_id = $1`,
		string(landscaperID),
	).Scan(&r.AverageRating, &r.TotalReviews)
	return r, err
}
