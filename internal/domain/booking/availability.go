package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
)

// RangeFree reports whether [start, end) is clear of every calendar-blocking
// booking in existing. The booking with id exclude, if any, is ignored.
func RangeFree(existing []*Booking, start, end time.Time, exclude *uuid.UUID) bool {
	for _, b := range existing {
		if exclude != nil && b.ID == *exclude {
			continue
		}
		if !b.Status.BlocksCalendar() {
			continue
		}
		if daterange.Overlaps(b.StartDate, b.EndDate, start, end) {
			return false
		}
	}
	return true
}
