package booking

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/pkg/bookingstatus"
	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
	"github.com/rentnest/rentnest-api/internal/pkg/money"
)

// Status is the booking lifecycle state.
type Status = bookingstatus.Status

const (
	StatusPending   = bookingstatus.Pending
	StatusApproved  = bookingstatus.Approved
	StatusRejected  = bookingstatus.Rejected
	StatusCancelled = bookingstatus.Cancelled
	StatusCompleted = bookingstatus.Completed
)

// ParseStatus rejects unknown strings.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", newError(ErrValidation, fmt.Sprintf("invalid status %q", s))
	}
	return st, nil
}

// BookingType selects the pricing unit.
type BookingType string

const (
	TypeNight BookingType = "night"
	TypeMonth BookingType = "month"
)

// Valid reports whether t is a known booking type.
func (t BookingType) Valid() bool {
	switch t {
	case TypeNight, TypeMonth:
		return true
	}
	return false
}

// PaymentStatus tracks the money side of a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// RefundStatus is the refund sub-state.
type RefundStatus string

const (
	RefundNone      RefundStatus = "none"
	RefundRequested RefundStatus = "requested"
	RefundProcessed RefundStatus = "processed"
	RefundRejected  RefundStatus = "rejected"
)

// Valid reports whether r is a known refund status.
func (r RefundStatus) Valid() bool {
	switch r {
	case RefundNone, RefundRequested, RefundProcessed, RefundRejected:
		return true
	}
	return false
}

// RefundPercent is the share of total_price returned on refund.
const RefundPercent = 80

// Booking represents a stay request on an apartment
type Booking struct {
	ID                uuid.UUID     `db:"id"`
	TenantID          uuid.UUID     `db:"tenant_id"`
	ApartmentID       uuid.UUID     `db:"apartment_id"`
	BookingType       BookingType   `db:"booking_type"`
	StartDate         time.Time     `db:"start_date"`
	EndDate           time.Time     `db:"end_date"`
	GuestCount        int           `db:"guest_count"`
	Message           string        `db:"message"`
	TotalPrice        money.Cents   `db:"total_price"`
	Status            Status        `db:"status"`
	PaymentStatus     PaymentStatus `db:"payment_status"`
	RefundStatus      RefundStatus  `db:"refund_status"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`
	ApprovedAt        sql.NullTime  `db:"approved_at"`
	RejectedAt        sql.NullTime  `db:"rejected_at"`
	CancelledAt       sql.NullTime  `db:"cancelled_at"`
	RefundRequestedAt sql.NullTime  `db:"refund_requested_at"`
	RefundProcessedAt sql.NullTime  `db:"refund_processed_at"`
	RefundedAt        sql.NullTime  `db:"refunded_at"`
}

// Nights is the length of the stay in days.
func (b *Booking) Nights() int {
	return daterange.Nights(b.StartDate, b.EndDate)
}

// Range returns the booked [start, end) interval.
func (b *Booking) Range() daterange.Range {
	return daterange.Range{Start: b.StartDate, End: b.EndDate}
}

// RefundAmount is the amount returned to the tenant on refund.
func (b *Booking) RefundAmount() money.Cents {
	return b.TotalPrice.Percent(RefundPercent)
}

// DocumentType classifies an uploaded booking document.
type DocumentType string

const (
	DocumentPassport     DocumentType = "passport"
	DocumentIDCard       DocumentType = "id_card"
	DocumentContract     DocumentType = "contract"
	DocumentPaymentProof DocumentType = "payment_proof"
	DocumentOther        DocumentType = "other"
)

// Valid reports whether d is a known document type.
func (d DocumentType) Valid() bool {
	switch d {
	case DocumentPassport, DocumentIDCard, DocumentContract, DocumentPaymentProof, DocumentOther:
		return true
	}
	return false
}

// Document is a file attached to a booking. Documents are append-only.
type Document struct {
	ID           uuid.UUID    `db:"id"`
	BookingID    uuid.UUID    `db:"booking_id"`
	UploadedBy   uuid.UUID    `db:"uploaded_by"`
	DocumentType DocumentType `db:"document_type"`
	FileKey      string       `db:"file_key"`
	FileURL      string       `db:"file_url"`
	ContentType  string       `db:"content_type"`
	UploadedAt   time.Time    `db:"uploaded_at"`
}
