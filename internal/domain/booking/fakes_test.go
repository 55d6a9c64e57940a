package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/domain/apartment"
	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
)

// memRepo is an in-memory Repository. Create holds the mutex across the
// overlap check and insert, standing in for the apartment row lock.
type memRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]Booking
	docs     []*Document
	owners   map[uuid.UUID]uuid.UUID // apartment -> owner
	sweeps   int
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: map[uuid.UUID]Booking{}, owners: map[uuid.UUID]uuid.UUID{}}
}

func (m *memRepo) Create(ctx context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.bookings {
		if other.ApartmentID == b.ApartmentID && other.Status.BlocksCalendar() &&
			daterange.Overlaps(other.StartDate, other.EndDate, b.StartDate, b.EndDate) {
			return ErrUnavailable
		}
	}
	m.bookings[b.ID] = *b
	return nil
}

func (m *memRepo) put(b Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
}

func (m *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memRepo) ListBlocking(ctx context.Context, apartmentID uuid.UUID, start, end time.Time) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.bookings {
		b := b
		if b.ApartmentID == apartmentID && b.Status.BlocksCalendar() &&
			daterange.Overlaps(b.StartDate, b.EndDate, start, end) {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *memRepo) Transition(ctx context.Context, id uuid.UUID, fn func(current Booking) (Booking, error)) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	m.bookings[id] = next
	return &next, nil
}

func (m *memRepo) visible(v Viewer, b Booking) bool {
	switch v.Role {
	case middleware.RoleAdmin:
		return true
	case middleware.RoleLandlord:
		return m.owners[b.ApartmentID] == v.UserID
	default:
		return b.TenantID == v.UserID
	}
}

func (m *memRepo) CompleteStale(ctx context.Context, v Viewer, today, now time.Time) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	var out []*Booking
	for id, b := range m.bookings {
		if !m.visible(v, b) {
			continue
		}
		if next, err := Apply(b, TransitionComplete, SystemActor, now); err == nil {
			m.bookings[id] = next
			done := next
			out = append(out, &done)
		}
	}
	return out, nil
}

func (m *memRepo) List(ctx context.Context, f *ListFilter, p *Pagination) ([]*Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.bookings {
		b := b
		if !m.visible(f.Viewer, b) {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (m *memRepo) CreateDocument(ctx context.Context, d *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, d)
	return nil
}

func (m *memRepo) ListDocuments(ctx context.Context, bookingID uuid.UUID) ([]*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Document
	for _, d := range m.docs {
		if d.BookingID == bookingID {
			out = append(out, d)
		}
	}
	return out, nil
}

type memApartments struct {
	byID map[uuid.UUID]*apartment.Apartment
	err  error
}

func (m *memApartments) GetByID(ctx context.Context, id uuid.UUID) (*apartment.Apartment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byID[id], nil
}

type captureNotifier struct {
	events chan Event
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{events: make(chan Event, 16)}
}

func (c *captureNotifier) Notify(ctx context.Context, e Event) {
	c.events <- e
}

func (c *captureNotifier) next(timeout time.Duration) (Event, bool) {
	select {
	case e := <-c.events:
		return e, true
	case <-time.After(timeout):
		return Event{}, false
	}
}

// panicNotifier signals then blows up, like a broken mail client.
type panicNotifier struct {
	called chan struct{}
}

func (p *panicNotifier) Notify(ctx context.Context, e Event) {
	close(p.called)
	panic("smtp exploded")
}
