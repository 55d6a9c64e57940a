package notification

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type represents notification type
type Type string

const (
	TypeBookingCreated         Type = "booking_created"   // Owner: new request
	TypeBookingApproved        Type = "booking_approved"  // Tenant
	TypeBookingRejected        Type = "booking_rejected"  // Tenant
	TypeBookingCancelled       Type = "booking_cancelled" // Both
	TypeBookingRefundRequested Type = "booking_refund_requested"
	TypeBookingRefundProcessed Type = "booking_refund_processed"
	TypeBookingCompleted       Type = "booking_completed"
)

// Notification represents a user notification
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Type      Type            `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Body      sql.NullString  `db:"body" json:"body,omitempty"`
	Data      json.RawMessage `db:"data" json:"data,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	ReadAt    sql.NullTime    `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Data links a notification to the booking it is about.
type Data struct {
	BookingID   *uuid.UUID `json:"booking_id,omitempty"`
	ApartmentID *uuid.UUID `json:"apartment_id,omitempty"`
}

// SetData encodes data to JSON
func (n *Notification) SetData(data *Data) {
	if data != nil {
		n.Data, _ = json.Marshal(data)
	}
}

// GetData decodes data from JSON
func (n *Notification) GetData() *Data {
	if len(n.Data) == 0 {
		return &Data{}
	}
	var data Data
	_ = json.Unmarshal(n.Data, &data)
	return &data
}
