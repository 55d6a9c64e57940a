package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/domain/apartment"
	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
	"github.com/rentnest/rentnest-api/internal/pkg/logger"
	"github.com/rentnest/rentnest-api/internal/pkg/storage"
)

const notifyTimeout = 15 * time.Second

// ApartmentReader is the listing lookup the engine depends on.
type ApartmentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*apartment.Apartment, error)
}

// CreateInput is a parsed booking request.
type CreateInput struct {
	ApartmentID uuid.UUID
	BookingType BookingType
	StartDate   time.Time
	EndDate     time.Time
	GuestCount  int
	Message     string
}

// Service handles booking admission and lifecycle
type Service struct {
	repo       Repository
	apartments ApartmentReader
	storage    storage.Storage
	notifier   Notifier
	now        func() time.Time
}

// NewService creates booking service
func NewService(repo Repository, apartments ApartmentReader, store storage.Storage) *Service {
	return &Service{
		repo:       repo,
		apartments: apartments,
		storage:    store,
		notifier:   noopNotifier{},
		now:        time.Now,
	}
}

// SetNotifier sets the event notifier (optional)
func (s *Service) SetNotifier(n Notifier) {
	if n == nil {
		n = noopNotifier{}
	}
	s.notifier = n
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time {
	return daterange.DateOnly(s.now())
}

func (s *Service) apartment(ctx context.Context, id uuid.UUID) (*apartment.Apartment, error) {
	apt, err := s.apartments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get apartment: %w", err)
	}
	if apt == nil {
		return nil, ErrApartmentNotFound
	}
	return apt, nil
}

// IsRangeFree reports whether [start, end) has no pending or approved booking
// on the apartment, ignoring exclude.
func (s *Service) IsRangeFree(ctx context.Context, apartmentID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	existing, err := s.repo.ListBlocking(ctx, apartmentID, start, end)
	if err != nil {
		return false, fmt.Errorf("list blocking bookings: %w", err)
	}
	return RangeFree(existing, start, end, exclude), nil
}

// Create admits a booking request for tenantID.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, in *CreateInput) (*Booking, error) {
	apt, err := s.apartment(ctx, in.ApartmentID)
	if err != nil {
		return nil, err
	}
	if !in.BookingType.Valid() {
		return nil, ErrInvalidBookingType
	}

	start := daterange.DateOnly(in.StartDate)
	end := daterange.DateOnly(in.EndDate)

	// First violation wins: dates, then guests, then the calendar.
	if !start.Before(end) {
		return nil, ErrCheckoutNotAfter
	}
	if in.GuestCount < 1 {
		return nil, ErrGuestCountTooLow
	}
	if in.GuestCount > apt.MaxGuests {
		return nil, ErrCapacityExceeded(apt.MaxGuests)
	}
	if !apt.IsAvailable {
		return nil, ErrNotAcceptingBookings
	}

	free, err := s.IsRangeFree(ctx, apt.ID, start, end, nil)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, ErrUnavailable
	}

	total, err := Quote(in.BookingType, start, end, Rates{PerNight: apt.PricePerNight, PerMonth: apt.PricePerMonth})
	if err != nil {
		return nil, err
	}

	now := s.now()
	b := &Booking{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ApartmentID:   apt.ID,
		BookingType:   in.BookingType,
		StartDate:     start,
		EndDate:       end,
		GuestCount:    in.GuestCount,
		Message:       in.Message,
		TotalPrice:    total,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		RefundStatus:  RefundNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("booking_id", b.ID.String()).
		Str("apartment_id", apt.ID.String()).
		Str("total_price", b.TotalPrice.String()).
		Msg("booking created")

	s.emit(ctx, EventCreated, b, apt)
	return b, nil
}

func actorFor(v Viewer, b *Booking, ownerID uuid.UUID) Actor {
	return Actor{
		IsTenant: v.UserID == b.TenantID,
		IsOwner:  v.UserID == ownerID,
		IsAdmin:  v.Role == middleware.RoleAdmin,
	}
}

func (a Actor) canView() bool {
	return a.IsTenant || a.IsOwner || a.IsAdmin
}

// load fetches a booking with its apartment and checks that v may see it.
func (s *Service) load(ctx context.Context, v Viewer, id uuid.UUID) (*Booking, *apartment.Apartment, Actor, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, Actor{}, fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return nil, nil, Actor{}, ErrBookingNotFound
	}
	apt, err := s.apartment(ctx, b.ApartmentID)
	if err != nil {
		return nil, nil, Actor{}, err
	}
	actor := actorFor(v, b, apt.OwnerID)
	if !actor.canView() {
		return nil, nil, Actor{}, ErrAccessDenied
	}
	return b, apt, actor, nil
}

// Get returns a booking visible to v.
func (s *Service) Get(ctx context.Context, v Viewer, id uuid.UUID) (*Booking, error) {
	b, _, _, err := s.load(ctx, v, id)
	return b, err
}

// List completes v's overdue bookings, then returns the filtered page.
func (s *Service) List(ctx context.Context, filter *ListFilter, pagination *Pagination) ([]*Booking, int, error) {
	now := s.now()
	filter.Today = daterange.DateOnly(now)

	done, err := s.repo.CompleteStale(ctx, filter.Viewer, filter.Today, now)
	if err != nil {
		return nil, 0, fmt.Errorf("complete stale bookings: %w", err)
	}
	if len(done) > 0 {
		logger.FromContext(ctx).Info().Int("count", len(done)).Msg("bookings auto-completed")
		s.emitCompleted(ctx, done)
	}

	return s.repo.List(ctx, filter, pagination)
}

func (s *Service) emitCompleted(ctx context.Context, done []*Booking) {
	apts := make(map[uuid.UUID]*apartment.Apartment)
	for _, b := range done {
		apt, ok := apts[b.ApartmentID]
		if !ok {
			var err error
			if apt, err = s.apartment(ctx, b.ApartmentID); err != nil {
				logger.FromContext(ctx).Warn().Err(err).Str("booking_id", b.ID.String()).Msg("completed booking has no apartment")
				continue
			}
			apts[b.ApartmentID] = apt
		}
		s.emit(ctx, EventCompleted, b, apt)
	}
}

func (s *Service) transition(ctx context.Context, v Viewer, id uuid.UUID, t Transition) (*Booking, error) {
	b, apt, actor, err := s.load(ctx, v, id)
	if err != nil {
		// Non-participants get the transition's own authorization error.
		if errors.Is(err, ErrAccessDenied) {
			return nil, authorize(t, Actor{})
		}
		return nil, err
	}

	now := s.now()
	updated, err := s.repo.Transition(ctx, b.ID, func(current Booking) (Booking, error) {
		return Apply(current, t, actor, now)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("booking_id", updated.ID.String()).
		Str("transition", string(t)).
		Str("status", string(updated.Status)).
		Str("refund_status", string(updated.RefundStatus)).
		Msg("booking transitioned")

	s.emit(ctx, t.Event(), updated, apt)
	return updated, nil
}

// Approve moves a pending booking to approved. Owner or admin only.
func (s *Service) Approve(ctx context.Context, v Viewer, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, v, id, TransitionApprove)
}

// Reject moves a pending booking to rejected. Owner or admin only.
func (s *Service) Reject(ctx context.Context, v Viewer, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, v, id, TransitionReject)
}

// Cancel cancels a pending or approved booking. Tenant only.
func (s *Service) Cancel(ctx context.Context, v Viewer, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, v, id, TransitionCancel)
}

// RequestRefund opens a refund request. Tenant only.
func (s *Service) RequestRefund(ctx context.Context, v Viewer, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, v, id, TransitionRequestRefund)
}

// ProcessRefund settles a requested refund. Apartment owner only.
func (s *Service) ProcessRefund(ctx context.Context, v Viewer, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, v, id, TransitionProcessRefund)
}

// BlockedRanges returns the occupied stays on an apartment within [from, to).
func (s *Service) BlockedRanges(ctx context.Context, apartmentID uuid.UUID, from, to time.Time) ([]daterange.Range, error) {
	if _, err := s.apartment(ctx, apartmentID); err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, newError(ErrValidation, "to must be after from")
	}

	existing, err := s.repo.ListBlocking(ctx, apartmentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list blocking bookings: %w", err)
	}
	out := make([]daterange.Range, 0, len(existing))
	for _, b := range existing {
		out = append(out, b.Range())
	}
	return out, nil
}

// UploadDocument stores a file for the booking's tenant or apartment owner.
func (s *Service) UploadDocument(ctx context.Context, v Viewer, id uuid.UUID, docType DocumentType, filename string, file io.Reader) (*Document, error) {
	if !docType.Valid() {
		return nil, ErrInvalidDocumentType
	}

	b, _, actor, err := s.load(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsTenant && !actor.IsOwner {
		return nil, newError(ErrForbidden, "only the tenant or the apartment owner can upload documents")
	}

	data, contentType, err := storage.ValidateFile(file, storage.CategoryDocument, storage.MaxSizes[storage.CategoryDocument])
	if err != nil {
		return nil, ErrInvalidDocumentFile.withCause(err)
	}

	key := storage.Key("booking-documents", b.ID, filename)
	if err := s.storage.Save(ctx, key, storage.NewReader(data), contentType); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	doc := &Document{
		ID:           uuid.New(),
		BookingID:    b.ID,
		UploadedBy:   v.UserID,
		DocumentType: docType,
		FileKey:      key,
		FileURL:      s.storage.GetURL(key),
		ContentType:  contentType,
		UploadedAt:   s.now(),
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			logger.FromContext(ctx).Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned document")
		}
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns the documents of a booking visible to v.
func (s *Service) ListDocuments(ctx context.Context, v Viewer, id uuid.UUID) ([]*Document, error) {
	if _, _, _, err := s.load(ctx, v, id); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, id)
}

// emit hands the event to the notifier without waiting for it.
func (s *Service) emit(ctx context.Context, t EventType, b *Booking, apt *apartment.Apartment) {
	evt := Event{
		Type:           t,
		Booking:        b,
		BookingID:      b.ID,
		TenantID:       b.TenantID,
		OwnerID:        apt.OwnerID,
		ApartmentID:    apt.ID,
		ApartmentTitle: apt.Title,
		Status:         b.Status,
		OccurredAt:     s.now(),
	}

	l := logger.FromContext(ctx)
	nctx := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				l.Error().Interface("panic", r).Str("booking_id", b.ID.String()).Msg("booking notifier panicked")
			}
		}()
		tctx, cancel := context.WithTimeout(nctx, notifyTimeout)
		defer cancel()
		s.notifier.Notify(tctx, evt)
	}()
}
