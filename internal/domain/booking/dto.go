package booking

import (
	"time"

	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
	"github.com/rentnest/rentnest-api/internal/pkg/money"
)

// CreateBookingRequest is the body of POST /bookings.
// booking_type is checked by the service so the apartment lookup runs first.
type CreateBookingRequest struct {
	ApartmentID string `json:"apartment_id" validate:"required,uuid"`
	BookingType string `json:"booking_type" validate:"required"`
	StartDate   string `json:"start_date" validate:"required,date"`
	EndDate     string `json:"end_date" validate:"required,date"`
	GuestCount  *int   `json:"guest_count"`
	Message     string `json:"message" validate:"max=2000"`
}

// ListQuery is the query string of GET /bookings.
type ListQuery struct {
	Status   string `schema:"status" validate:"omitempty,oneof=pending approved rejected cancelled completed"`
	Scope    string `schema:"scope" validate:"omitempty,oneof=active past future"`
	Ordering string `schema:"ordering" validate:"omitempty,oneof=created_at -created_at start_date -start_date"`
	Page     int    `schema:"page"`
	Limit    int    `schema:"limit"`
}

// AvailabilityQuery is the query string of GET /apartments/{id}/availability.
type AvailabilityQuery struct {
	From string `schema:"from" validate:"required,date"`
	To   string `schema:"to" validate:"required,date"`
}

// BookingResponse represents booking in API response
type BookingResponse struct {
	ID                string      `json:"id"`
	TenantID          string      `json:"tenant_id"`
	ApartmentID       string      `json:"apartment_id"`
	BookingType       string      `json:"booking_type"`
	StartDate         string      `json:"start_date"`
	EndDate           string      `json:"end_date"`
	Nights            int         `json:"nights"`
	GuestCount        int         `json:"guest_count"`
	Message           string      `json:"message,omitempty"`
	TotalPrice        money.Cents `json:"total_price"`
	RefundAmount      money.Cents `json:"refund_amount"`
	Status            string      `json:"status"`
	PaymentStatus     string      `json:"payment_status"`
	RefundStatus      string      `json:"refund_status"`
	CreatedAt         string      `json:"created_at"`
	UpdatedAt         string      `json:"updated_at"`
	ApprovedAt        *string     `json:"approved_at,omitempty"`
	RejectedAt        *string     `json:"rejected_at,omitempty"`
	CancelledAt       *string     `json:"cancelled_at,omitempty"`
	RefundRequestedAt *string     `json:"refund_requested_at,omitempty"`
	RefundProcessedAt *string     `json:"refund_processed_at,omitempty"`
	RefundedAt        *string     `json:"refunded_at,omitempty"`
}

func formatTime(t time.Time, valid bool) *string {
	if !valid {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// BookingResponseFromEntity converts entity to response
func BookingResponseFromEntity(b *Booking) *BookingResponse {
	return &BookingResponse{
		ID:                b.ID.String(),
		TenantID:          b.TenantID.String(),
		ApartmentID:       b.ApartmentID.String(),
		BookingType:       string(b.BookingType),
		StartDate:         b.StartDate.Format(daterange.Layout),
		EndDate:           b.EndDate.Format(daterange.Layout),
		Nights:            b.Nights(),
		GuestCount:        b.GuestCount,
		Message:           b.Message,
		TotalPrice:        b.TotalPrice,
		RefundAmount:      b.RefundAmount(),
		Status:            string(b.Status),
		PaymentStatus:     string(b.PaymentStatus),
		RefundStatus:      string(b.RefundStatus),
		CreatedAt:         b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         b.UpdatedAt.Format(time.RFC3339),
		ApprovedAt:        formatTime(b.ApprovedAt.Time, b.ApprovedAt.Valid),
		RejectedAt:        formatTime(b.RejectedAt.Time, b.RejectedAt.Valid),
		CancelledAt:       formatTime(b.CancelledAt.Time, b.CancelledAt.Valid),
		RefundRequestedAt: formatTime(b.RefundRequestedAt.Time, b.RefundRequestedAt.Valid),
		RefundProcessedAt: formatTime(b.RefundProcessedAt.Time, b.RefundProcessedAt.Valid),
		RefundedAt:        formatTime(b.RefundedAt.Time, b.RefundedAt.Valid),
	}
}

// DocumentResponse represents an uploaded booking document
type DocumentResponse struct {
	ID           string `json:"id"`
	BookingID    string `json:"booking_id"`
	DocumentType string `json:"document_type"`
	FileURL      string `json:"file_url"`
	ContentType  string `json:"content_type"`
	UploadedAt   string `json:"uploaded_at"`
}

// DocumentResponseFromEntity converts entity to response
func DocumentResponseFromEntity(d *Document) *DocumentResponse {
	return &DocumentResponse{
		ID:           d.ID.String(),
		BookingID:    d.BookingID.String(),
		DocumentType: string(d.DocumentType),
		FileURL:      d.FileURL,
		ContentType:  d.ContentType,
		UploadedAt:   d.UploadedAt.Format(time.RFC3339),
	}
}

// RangeResponse is one occupied stay on the calendar.
type RangeResponse struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}
