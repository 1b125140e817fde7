// README: Route stop store backed by the jobs table in PostgreSQL.
package route

import (
	"context"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"greenroute/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ListStops returns the landscaper's active jobs scheduled on day, in their
// current sequence. Missing coordinates come back as NaN.
func (s *Store) ListStops(ctx context.Context, landscaperID types.ID, day time.Time) ([]RoutePoint, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	rows, err := s.db.Query(ctx, `
		SELECT id, title, address, latitude, longitude,
		       COALESCE(estimated_duration_minutes, 0), COALESCE(sequence_order, 0)
		FROM jobs
		WHERE landscaper_id = $1
		  AND scheduled_date >= $2 AND scheduled_date < $3
		  AND status IN ('scheduled', 'in_progress')
		ORDER BY sequence_order NULLS LAST, scheduled_date, id`,
		string(landscaperID), from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stops []RoutePoint
	for rows.Next() {
		var p RoutePoint
		var lat, lng *float64
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &lat, &lng, &p.Duration, &p.SequenceOrder); err != nil {
			return nil, err
		}
		p.Latitude = floatOrNaN(lat)
		p.Longitude = floatOrNaN(lng)
		stops = append(stops, p)
	}
	return stops, rows.Err()
}

// UpdateSequence persists a single stop's position.
func (s *Store) UpdateSequence(ctx context.Context, jobID types.ID, sequence int) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE jobs SET sequence_order = $1, updated_at = NOW()
		WHERE id = $2`,
		sequence, string(jobID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
