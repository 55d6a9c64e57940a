// Package daterange works with calendar dates stored as UTC midnights.
package daterange

import (
	"fmt"
	"time"
)

// Layout is the wire and storage format for calendar dates.
const Layout = "2006-01-02"

const day = 24 * time.Hour

// Parse reads a YYYY-MM-DD date as UTC midnight.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DateOnly truncates t to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights is the number of whole days between two dates.
func Nights(start, end time.Time) int {
	return int(DateOnly(end).Sub(DateOnly(start)) / day)
}

// Overlaps is the half-open interval test: [aStart, aEnd) and [bStart, bEnd)
// intersect iff aStart < bEnd and aEnd > bStart.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Range is a half-open [Start, End) stay.
type Range struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Overlaps reports whether r intersects other.
func (r Range) Overlaps(other Range) bool {
	return Overlaps(r.Start, r.End, other.Start, other.End)
}

// Format renders both ends as YYYY-MM-DD.
func (r Range) Format() (string, string) {
	return r.Start.Format(Layout), r.End.Format(Layout)
}
