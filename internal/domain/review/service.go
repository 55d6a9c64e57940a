package review

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rentnest/rentnest-api/internal/domain/apartment"
	"github.com/rentnest/rentnest-api/internal/domain/booking"
	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
)

// BookingReader loads the booking being reviewed.
type BookingReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
}

// ApartmentReader checks that a reviewed apartment exists.
type ApartmentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*apartment.Apartment, error)
}

// DetailInvalidator drops cached apartment aggregates.
type DetailInvalidator interface {
	InvalidateDetail(ctx context.Context, id uuid.UUID)
}

// Service handles review business logic
type Service struct {
	repo       Repository
	bookings   BookingReader
	apartments ApartmentReader
	details    DetailInvalidator
	now        func() time.Time
}

// NewService creates review service. details may be nil.
func NewService(repo Repository, bookings BookingReader, apartments ApartmentReader, details DetailInvalidator) *Service {
	return &Service{
		repo:       repo,
		bookings:   bookings,
		apartments: apartments,
		details:    details,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// stayFinished reports whether b may be reviewed at today. Approved stays
// whose checkout date is before today count even before the completion
// sweep ran, matching what the sweep itself completes.
func stayFinished(b *booking.Booking, today time.Time) bool {
	switch b.Status {
	case booking.StatusCompleted:
		return true
	case booking.StatusApproved:
		return b.EndDate.Before(today)
	}
	return false
}

// Create records authorID's review of booking bookingID.
func (s *Service) Create(ctx context.Context, authorID, bookingID uuid.UUID, req *CreateRequest) (*Review, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	if b.TenantID != authorID {
		return nil, ErrNotBookingTenant
	}
	if !stayFinished(b, daterange.DateOnly(s.now())) {
		return nil, ErrBookingNotCompleted
	}

	now := s.now().UTC()
	rev := &Review{
		ID:          uuid.New(),
		BookingID:   b.ID,
		ApartmentID: b.ApartmentID,
		AuthorID:    authorID,
		Rating:      req.Rating,
		Comment:     req.Comment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, rev); err != nil {
		return nil, err
	}

	if s.details != nil {
		s.details.InvalidateDetail(ctx, b.ApartmentID)
	}
	log.Info().
		Str("review_id", rev.ID.String()).
		Str("booking_id", b.ID.String()).
		Int("rating", rev.Rating).
		Msg("review created")
	return rev, nil
}

func (s *Service) ensureApartment(ctx context.Context, id uuid.UUID) error {
	a, err := s.apartments.GetByID(ctx, id)
	if errors.Is(err, apartment.ErrApartmentNotFound) {
		return ErrApartmentNotFound
	}
	if err != nil {
		return err
	}
	if a == nil {
		return ErrApartmentNotFound
	}
	return nil
}

// ListByApartment pages through an apartment's reviews.
func (s *Service) ListByApartment(ctx context.Context, apartmentID uuid.UUID, page, limit int) ([]*Listed, int, error) {
	if err := s.ensureApartment(ctx, apartmentID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByApartment(ctx, apartmentID, limit, (page-1)*limit)
}

// Summary returns average, total and per-rating distribution.
func (s *Service) Summary(ctx context.Context, apartmentID uuid.UUID) (*Summary, error) {
	if err := s.ensureApartment(ctx, apartmentID); err != nil {
		return nil, err
	}
	counts, err := s.repo.RatingCounts(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	return NewSummary(counts), nil
}
