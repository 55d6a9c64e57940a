package booking

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
)

// Transition names a lifecycle move.
type Transition string

const (
	TransitionApprove       Transition = "approve"
	TransitionReject        Transition = "reject"
	TransitionCancel        Transition = "cancel"
	TransitionRequestRefund Transition = "request_refund"
	TransitionProcessRefund Transition = "process_refund"
	TransitionComplete      Transition = "complete"
)

// Valid reports whether t is a known transition.
func (t Transition) Valid() bool {
	switch t {
	case TransitionApprove, TransitionReject, TransitionCancel,
		TransitionRequestRefund, TransitionProcessRefund, TransitionComplete:
		return true
	}
	return false
}

// Event is the domain event name emitted after t succeeds.
func (t Transition) Event() EventType {
	switch t {
	case TransitionApprove:
		return EventApproved
	case TransitionReject:
		return EventRejected
	case TransitionCancel:
		return EventCancelled
	case TransitionRequestRefund:
		return EventRefundRequested
	case TransitionProcessRefund:
		return EventRefundProcessed
	case TransitionComplete:
		return EventCompleted
	}
	return ""
}

// Actor is what the lifecycle knows about the caller relative to one booking.
type Actor struct {
	IsTenant bool
	IsOwner  bool
	IsAdmin  bool
	IsSystem bool
}

// SystemActor performs automatic transitions.
var SystemActor = Actor{IsSystem: true}

func authorize(t Transition, a Actor) error {
	var ok bool
	switch t {
	case TransitionApprove, TransitionReject:
		ok = a.IsOwner || a.IsAdmin
	case TransitionCancel, TransitionRequestRefund:
		ok = a.IsTenant
	case TransitionProcessRefund:
		ok = a.IsOwner
	case TransitionComplete:
		ok = a.IsSystem
	default:
		return newError(ErrValidation, fmt.Sprintf("unknown transition %q", t))
	}
	if !ok {
		return newError(ErrForbidden, fmt.Sprintf("you are not allowed to %s this booking", verb(t)))
	}
	return nil
}

func verb(t Transition) string {
	switch t {
	case TransitionRequestRefund:
		return "request a refund for"
	case TransitionProcessRefund:
		return "process the refund for"
	}
	return string(t)
}

// Apply performs t on b as actor at now and returns the updated booking.
// Authorization is checked before the precondition. On error b is returned
// unchanged.
func Apply(b Booking, t Transition, actor Actor, now time.Time) (Booking, error) {
	if err := authorize(t, actor); err != nil {
		return b, err
	}

	stamp := sql.NullTime{Time: now, Valid: true}
	next := b

	switch t {
	case TransitionApprove:
		if b.Status != StatusPending {
			return b, statusConflict(b.Status, "approved")
		}
		next.Status = StatusApproved
		next.ApprovedAt = stamp

	case TransitionReject:
		if b.Status != StatusPending {
			return b, statusConflict(b.Status, "rejected")
		}
		next.Status = StatusRejected
		next.RejectedAt = stamp

	case TransitionCancel:
		if !b.Status.BlocksCalendar() {
			return b, newError(ErrConflict, fmt.Sprintf("cannot cancel a %s booking", b.Status))
		}
		next.Status = StatusCancelled
		next.CancelledAt = stamp
		next.PaymentStatus = PaymentRefunded

	case TransitionRequestRefund:
		if b.RefundStatus != RefundNone {
			return b, newError(ErrConflict, fmt.Sprintf("refund already %s", b.RefundStatus))
		}
		next.RefundStatus = RefundRequested
		next.RefundRequestedAt = stamp

	case TransitionProcessRefund:
		if b.RefundStatus != RefundRequested {
			return b, newError(ErrConflict, "no pending refund request")
		}
		next.RefundStatus = RefundProcessed
		next.RefundProcessedAt = stamp
		next.RefundedAt = stamp
		next.PaymentStatus = PaymentRefunded

	case TransitionComplete:
		if !b.Status.BlocksCalendar() || !b.EndDate.Before(daterange.DateOnly(now)) {
			return b, newError(ErrConflict, "booking is not due for completion")
		}
		next.Status = StatusCompleted
	}

	next.UpdatedAt = now
	return next, nil
}

func statusConflict(current Status, target string) error {
	return newError(ErrConflict, fmt.Sprintf("booking is %s, only pending bookings can be %s", current, target))
}
