package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/database/dbtest"
	"github.com/rentnest/rentnest-api/internal/pkg/money"
)

func pgApartment(t *testing.T, db *sqlx.DB, owner uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	dbtest.Exec(t, db, `
		INSERT INTO apartments (id, owner_id, title, address, city, country, price_per_night, price_per_month, bedrooms, max_guests)
		VALUES ($1, $2, 'Flat', 'Street 1', 'Astana', 'Kazakhstan', 100, 900, 1, 2)`, id, owner)
	return id
}

func pgBooking(tenant, apt uuid.UUID, start, end time.Time) *Booking {
	now := time.Now().UTC()
	return &Booking{
		ID:            uuid.New(),
		TenantID:      tenant,
		ApartmentID:   apt,
		BookingType:   TypeNight,
		StartDate:     start,
		EndDate:       end,
		GuestCount:    1,
		TotalPrice:    money.FromUnits(300),
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		RefundStatus:  RefundNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestRepositoryCreateAdmitsOneOfConcurrentOverlaps(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	apt := pgApartment(t, db, dbtest.User(t, db, middleware.RoleLandlord))

	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		refused  int
		other    []error
	)
	for i := 0; i < workers; i++ {
		tenant := dbtest.User(t, db, middleware.RoleTenant)
		// Every window overlaps 2024-03-05.
		start := date(t, "2024-03-01").AddDate(0, 0, i%4)
		b := pgBooking(tenant, apt, start, date(t, "2024-03-10"))

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(context.Background(), b)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, ErrUnavailable):
				refused++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, admitted)
	assert.Equal(t, workers-1, refused)

	blocking, err := repo.ListBlocking(context.Background(), apt, date(t, "2024-03-01"), date(t, "2024-03-10"))
	require.NoError(t, err)
	assert.Len(t, blocking, 1)
}

func TestRepositoryCreateAllowsBackToBack(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	apt := pgApartment(t, db, dbtest.User(t, db, middleware.RoleLandlord))
	tenant := dbtest.User(t, db, middleware.RoleTenant)

	require.NoError(t, repo.Create(ctx, pgBooking(tenant, apt, date(t, "2024-03-01"), date(t, "2024-03-05"))))
	require.NoError(t, repo.Create(ctx, pgBooking(tenant, apt, date(t, "2024-03-05"), date(t, "2024-03-08"))))

	err := repo.Create(ctx, pgBooking(tenant, apt, date(t, "2024-03-04"), date(t, "2024-03-06")))
	assert.ErrorIs(t, err, ErrUnavailable)

	err = repo.Create(ctx, pgBooking(tenant, uuid.New(), date(t, "2024-03-01"), date(t, "2024-03-02")))
	assert.ErrorIs(t, err, ErrApartmentNotFound)
}

func TestRepositoryTransition(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	apt := pgApartment(t, db, dbtest.User(t, db, middleware.RoleLandlord))
	tenant := dbtest.User(t, db, middleware.RoleTenant)

	b := pgBooking(tenant, apt, date(t, "2024-03-01"), date(t, "2024-03-05"))
	require.NoError(t, repo.Create(ctx, b))

	now := time.Now().UTC()
	approve := func(current Booking) (Booking, error) {
		return Apply(current, TransitionApprove, Actor{IsOwner: true}, now)
	}

	got, err := repo.Transition(ctx, b.ID, approve)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)

	_, err = repo.Transition(ctx, b.ID, approve)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = repo.Transition(ctx, uuid.New(), approve)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	stored, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	assert.True(t, stored.ApprovedAt.Valid)

	// Cancelling frees the dates for someone else.
	_, err = repo.Transition(ctx, b.ID, func(current Booking) (Booking, error) {
		return Apply(current, TransitionCancel, Actor{IsTenant: true}, now)
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, pgBooking(tenant, apt, date(t, "2024-03-02"), date(t, "2024-03-04"))))
}

func TestRepositoryListAndSweep(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := dbtest.User(t, db, middleware.RoleLandlord)
	apt := pgApartment(t, db, owner)
	otherApt := pgApartment(t, db, dbtest.User(t, db, middleware.RoleLandlord))
	tenant := dbtest.User(t, db, middleware.RoleTenant)

	require.NoError(t, repo.Create(ctx, pgBooking(tenant, apt, date(t, "2024-01-01"), date(t, "2024-01-05"))))
	require.NoError(t, repo.Create(ctx, pgBooking(tenant, apt, date(t, "2024-06-01"), date(t, "2024-06-05"))))
	require.NoError(t, repo.Create(ctx, pgBooking(tenant, otherApt, date(t, "2024-06-01"), date(t, "2024-06-05"))))

	ownerView := Viewer{UserID: owner, Role: middleware.RoleLandlord}
	page := &Pagination{Page: 1, Limit: 10}

	items, total, err := repo.List(ctx, &ListFilter{Viewer: ownerView}, page)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	items, total, err = repo.List(ctx, &ListFilter{Viewer: Viewer{UserID: tenant, Role: middleware.RoleTenant}, Ordering: "start_date"}, page)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, date(t, "2024-01-01"), items[0].StartDate.UTC())

	done, err := repo.CompleteStale(ctx, ownerView, date(t, "2024-03-01"), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, StatusCompleted, done[0].Status)
	assert.Equal(t, apt, done[0].ApartmentID)

	completed := StatusCompleted
	_, total, err = repo.List(ctx, &ListFilter{Viewer: Viewer{Role: middleware.RoleAdmin}, Status: &completed}, page)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
