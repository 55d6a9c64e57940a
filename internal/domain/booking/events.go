package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType is the routing suffix of a booking domain event.
type EventType string

const (
	EventCreated         EventType = "created"
	EventApproved        EventType = "approved"
	EventRejected        EventType = "rejected"
	EventCancelled       EventType = "cancelled"
	EventRefundRequested EventType = "refund_requested"
	EventRefundProcessed EventType = "refund_processed"
	EventCompleted       EventType = "completed"
)

// Event describes something that happened to a booking.
type Event struct {
	Type           EventType `json:"type"`
	Booking        *Booking  `json:"-"`
	BookingID      uuid.UUID `json:"booking_id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	ApartmentID    uuid.UUID `json:"apartment_id"`
	ApartmentTitle string    `json:"apartment_title"`
	Status         Status    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Notifier delivers booking events. Implementations must not block for long;
// errors are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Event) {}
