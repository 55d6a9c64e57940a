// Package bookingstatus names the booking lifecycle states. It has no
// dependencies so both the booking engine and apartment search can agree on
// which states hold the calendar.
package bookingstatus

// Status is the booking lifecycle state.
type Status string

const (
	Pending   Status = "pending"
	Approved  Status = "approved"
	Rejected  Status = "rejected"
	Cancelled Status = "cancelled"
	Completed Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case Pending, Approved, Rejected, Cancelled, Completed:
		return true
	}
	return false
}

// BlocksCalendar reports whether a booking in this status holds its dates.
func (s Status) BlocksCalendar() bool {
	switch s {
	case Pending, Approved:
		return true
	case Rejected, Cancelled, Completed:
		return false
	}
	return false
}

// Blocking returns the statuses that occupy the calendar.
func Blocking() []Status {
	return []Status{Pending, Approved}
}

// BlockingStrings is Blocking as plain strings, for SQL array parameters.
func BlockingStrings() []string {
	blocking := Blocking()
	out := make([]string, len(blocking))
	for i, s := range blocking {
		out[i] = string(s)
	}
	return out
}
