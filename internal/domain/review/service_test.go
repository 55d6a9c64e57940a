package review

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentnest/rentnest-api/internal/domain/apartment"
	"github.com/rentnest/rentnest-api/internal/domain/booking"
	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
)

type memRepo struct {
	mu      sync.Mutex
	reviews []*Review
}

func (m *memRepo) Create(ctx context.Context, rev *Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews {
		if existing.BookingID == rev.BookingID {
			return ErrAlreadyReviewed
		}
	}
	cp := *rev
	m.reviews = append(m.reviews, &cp)
	return nil
}

func (m *memRepo) ListByApartment(ctx context.Context, apartmentID uuid.UUID, limit, offset int) ([]*Listed, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Listed
	for _, r := range m.reviews {
		if r.ApartmentID == apartmentID {
			all = append(all, &Listed{Review: *r, AuthorFirstName: "Guest"})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memRepo) RatingCounts(ctx context.Context, apartmentID uuid.UUID) (map[int]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[int]int)
	for _, r := range m.reviews {
		if r.ApartmentID == apartmentID {
			counts[r.Rating]++
		}
	}
	return counts, nil
}

type memBookings map[uuid.UUID]*booking.Booking

func (m memBookings) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return m[id], nil
}

type memApartments map[uuid.UUID]*apartment.Apartment

func (m memApartments) GetByID(ctx context.Context, id uuid.UUID) (*apartment.Apartment, error) {
	return m[id], nil
}

type invalidations struct {
	ids []uuid.UUID
}

func (i *invalidations) InvalidateDetail(ctx context.Context, id uuid.UUID) {
	i.ids = append(i.ids, id)
}

type fixture struct {
	svc         *Service
	repo        *memRepo
	bookings    memBookings
	apt         *apartment.Apartment
	tenant      uuid.UUID
	invalidated *invalidations
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	apt := &apartment.Apartment{ID: uuid.New(), OwnerID: uuid.New(), Title: "Sunny flat"}
	f := &fixture{
		repo:        &memRepo{},
		bookings:    memBookings{},
		apt:         apt,
		tenant:      uuid.New(),
		invalidated: &invalidations{},
	}
	f.svc = NewService(f.repo, f.bookings, memApartments{apt.ID: apt}, f.invalidated).
		WithClock(func() time.Time { return now })
	return f
}

func (f *fixture) stay(t *testing.T, status booking.Status, start, end string) *booking.Booking {
	t.Helper()
	s, err := daterange.Parse(start)
	require.NoError(t, err)
	e, err := daterange.Parse(end)
	require.NoError(t, err)
	b := &booking.Booking{
		ID:          uuid.New(),
		TenantID:    f.tenant,
		ApartmentID: f.apt.ID,
		StartDate:   s,
		EndDate:     e,
		Status:      status,
	}
	f.bookings[b.ID] = b
	return b
}

func TestCreateReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.stay(t, booking.StatusCompleted, "2024-04-01", "2024-04-05")

	rev, err := f.svc.Create(ctx, f.tenant, b.ID, &CreateRequest{Rating: 5, Comment: "Lovely"})
	require.NoError(t, err)
	assert.Equal(t, f.apt.ID, rev.ApartmentID)
	assert.Equal(t, []uuid.UUID{f.apt.ID}, f.invalidated.ids)

	_, err = f.svc.Create(ctx, f.tenant, b.ID, &CreateRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestCreateReviewEligibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		status booking.Status
		start  string
		end    string
		author uuid.UUID
		want   error
	}{
		{name: "approved and checked out", status: booking.StatusApproved, start: "2024-05-01", end: "2024-05-09", author: f.tenant},
		{name: "approved checking out today", status: booking.StatusApproved, start: "2024-05-01", end: "2024-05-10", author: f.tenant, want: ErrBookingNotCompleted},
		{name: "approved still staying", status: booking.StatusApproved, start: "2024-05-08", end: "2024-05-12", author: f.tenant, want: ErrBookingNotCompleted},
		{name: "pending", status: booking.StatusPending, start: "2024-04-01", end: "2024-04-03", author: f.tenant, want: ErrBookingNotCompleted},
		{name: "cancelled", status: booking.StatusCancelled, start: "2024-04-01", end: "2024-04-03", author: f.tenant, want: ErrBookingNotCompleted},
		{name: "someone else", status: booking.StatusCompleted, start: "2024-04-01", end: "2024-04-03", author: uuid.New(), want: ErrNotBookingTenant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := f.stay(t, tt.status, tt.start, tt.end)
			_, err := f.svc.Create(ctx, tt.author, b.ID, &CreateRequest{Rating: 3})
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.svc.Create(ctx, f.tenant, uuid.New(), &CreateRequest{Rating: 3})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, rating := range []int{5, 4, 4, 1} {
		b := f.stay(t, booking.StatusCompleted, "2024-04-01", "2024-04-02")
		_, err := f.svc.Create(ctx, f.tenant, b.ID, &CreateRequest{Rating: rating})
		require.NoError(t, err)
	}

	s, err := f.svc.Summary(ctx, f.apt.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, s.TotalReviews)
	assert.InDelta(t, 3.5, s.AverageRating, 1e-9)
	assert.Equal(t, map[int]int{1: 1, 2: 0, 3: 0, 4: 2, 5: 1}, s.Distribution)

	items, total, err := f.svc.ListByApartment(ctx, f.apt.ID, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, items, 1)

	_, err = f.svc.Summary(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrApartmentNotFound)
}

func TestNewSummaryEmpty(t *testing.T) {
	s := NewSummary(nil)
	assert.Zero(t, s.TotalReviews)
	assert.Zero(t, s.AverageRating)
	assert.Len(t, s.Distribution, 5)
}
