// README: Schedule conflict checks against a landscaper's booked jobs.
package schedule

import (
	"errors"
	"time"
)

var ErrBadRequest = errors.New("bad request")

// DefaultJobDuration applies to booked jobs saved without an estimate.
const DefaultJobDuration = 60 * time.Minute

// Booking is an existing commitment on a landscaper's calendar.
type Booking struct {
	JobID    string
	Start    time.Time
	Duration time.Duration
}

func (b Booking) End() time.Time {
	d := b.Duration
	if d <= 0 {
		d = DefaultJobDuration
	}
	return b.Start.Add(d)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
