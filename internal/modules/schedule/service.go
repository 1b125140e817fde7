// README: Schedule service answers "does this slot collide with booked work?".
package schedule

import (
	"context"
	"fmt"
	"time"

	"greenroute/internal/types"
)

type BookingStore interface {
	// BookingsOverlapping returns active bookings whose span intersects [from, to),
	// including ones that started on an earlier day.
	BookingsOverlapping(ctx context.Context, landscaperID types.ID, from, to time.Time) ([]Booking, error)
}

type Service struct {
	store BookingStore
}

func NewService(store BookingStore) *Service {
	return &Service{store: store}
}

// ConflictCount counts the landscaper's bookings that overlap
// [start, start+duration). A non-positive duration uses DefaultJobDuration.
func (s *Service) ConflictCount(ctx context.Context, landscaperID types.ID, start time.Time, duration time.Duration) (int, error) {
	if landscaperID == "" || start.IsZero() {
		return 0, ErrBadRequest
	}
	if duration <= 0 {
		duration = DefaultJobDuration
	}
	end := start.Add(duration)
	bookings, err := s.store.BookingsOverlapping(ctx, landscaperID, start, end)
	if err != nil {
		return 0, fmt.Errorf("conflict count: %w", err)
	}

	n := 0
	for _, b := range bookings {
		if Overlaps(start, end, b.Start, b.End()) {
			n++
		}
	}
	return n, nil
}
