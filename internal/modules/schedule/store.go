// README: Booking reads from the jobs table.
package schedule

import (
	"context"
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

// BookingsOverlapping returns active jobs for the landscaper whose
// [scheduled_date, scheduled_date+duration) intersects [from, to). Jobs without
// an estimate span DefaultJobDuration.
func (s *Store) BookingsOverlapping(ctx context.Context, landscaperID types.ID, from, to time.Time) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, scheduled_date, COALESCE(estimated_duration_minutes, 0)
		FROM jobs
		WHERE landscaper_id = $1
		  AND scheduled_date < $3
		  AND scheduled_date + make_interval(mins => COALESCE(NULLIF(estimated_duration_minutes, 0), $4)) > $2
		  AND status IN ('scheduled', 'in_progress')
		ORDER BY scheduled_date`,
		string(landscaperID), from, to, int(DefaultJobDuration/time.Minute),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		var minutes int
		if err := rows.Scan(&b.JobID, &b.Start, &minutes); err != nil {
			return nil, err
		}
		b.Duration = time.Duration(minutes) * time.Minute
		out = append(out, b)
	}
	return out, rows.Err()
}
