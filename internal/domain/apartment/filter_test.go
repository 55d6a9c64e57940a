package apartment

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentnest/rentnest-api/internal/pkg/bookingstatus"
	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
	"github.com/rentnest/rentnest-api/internal/pkg/geo"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := daterange.Parse(s)
	require.NoError(t, err)
	return d
}

func item(title string) *ListItem {
	return &ListItem{Apartment: Apartment{ID: uuid.New(), Title: title, IsAvailable: true}}
}

func located(title string, lat, lng float64) *ListItem {
	it := item(title)
	it.Latitude = sql.NullFloat64{Float64: lat, Valid: true}
	it.Longitude = sql.NullFloat64{Float64: lng, Valid: true}
	return it
}

func titles(items []*ListItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestFilterAvailable(t *testing.T) {
	a, b, c, d := item("a"), item("b"), item("c"), item("d")
	stays := []Stay{
		{ApartmentID: a.ID, Start: day(t, "2024-01-05"), End: day(t, "2024-01-10"), Status: "approved"},
		// ends on check-in day: back to back is fine
		{ApartmentID: b.ID, Start: day(t, "2024-01-01"), End: day(t, "2024-01-10"), Status: "pending"},
		{ApartmentID: c.ID, Start: day(t, "2024-01-10"), End: day(t, "2024-01-12"), Status: "cancelled"},
		{ApartmentID: d.ID, Start: day(t, "2024-01-11"), End: day(t, "2024-01-12"), Status: "pending"},
	}

	got := FilterAvailable([]*ListItem{a, b, c, d}, stays, day(t, "2024-01-10"), day(t, "2024-01-15"))
	assert.Equal(t, []string{"b", "c"}, titles(got))

	got = FilterAvailable([]*ListItem{a, b, c, d}, nil, day(t, "2024-01-10"), day(t, "2024-01-15"))
	assert.Len(t, got, 4)
}

// Every kept apartment has no blocking overlap; every dropped one has one.
func TestFilterAvailableAgreesWithOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := day(t, "2024-03-01")
	statuses := []bookingstatus.Status{
		bookingstatus.Pending, bookingstatus.Approved, bookingstatus.Rejected, bookingstatus.Cancelled, bookingstatus.Completed,
	}

	for round := 0; round < 200; round++ {
		items := make([]*ListItem, 5)
		for i := range items {
			items[i] = item(string(rune('a' + i)))
		}

		var stays []Stay
		for i := 0; i < 8; i++ {
			start := base.AddDate(0, 0, rng.Intn(30))
			stays = append(stays, Stay{
				ApartmentID: items[rng.Intn(len(items))].ID,
				Start:       start,
				End:         start.AddDate(0, 0, 1+rng.Intn(7)),
				Status:      statuses[rng.Intn(len(statuses))],
			})
		}
		in := base.AddDate(0, 0, rng.Intn(30))
		out := in.AddDate(0, 0, 1+rng.Intn(10))

		kept := map[uuid.UUID]bool{}
		for _, it := range FilterAvailable(items, stays, in, out) {
			kept[it.ID] = true
		}

		for _, it := range items {
			blocked := false
			for _, s := range stays {
				if s.ApartmentID == it.ID && (s.Status == "pending" || s.Status == "approved") &&
					s.Start.Before(out) && s.End.After(in) {
					blocked = true
				}
			}
			assert.Equal(t, !blocked, kept[it.ID], "round %d apartment %s", round, it.Title)
		}
	}
}

func TestWithinRadius(t *testing.T) {
	center := geo.Point{Lat: 43.2389, Lng: 76.8897}

	near := located("near", 43.2489, 76.8897) // ~1.1 km north
	mid := located("mid", 43.2389, 76.9497)   // ~4.9 km east
	far := located("far", 51.1605, 71.4704)   // another city
	nowhere := item("no coordinates")

	got := WithinRadius([]*ListItem{mid, far, nowhere, near}, center, 10)
	require.Equal(t, []string{"near", "mid"}, titles(got))

	require.NotNil(t, near.DistanceKm)
	assert.InDelta(t, 1.11, *near.DistanceKm, 0.01)
	assert.InDelta(t, 4.86, *mid.DistanceKm, 0.05)
	assert.Nil(t, far.DistanceKm)
	assert.Nil(t, nowhere.DistanceKm)

	assert.Empty(t, WithinRadius([]*ListItem{mid, far}, center, 1))
}

func TestWithinRadiusBoundary(t *testing.T) {
	center := geo.Point{Lat: 0, Lng: 0}
	it := located("edge", 0, 1)
	d := geo.Haversine(center, geo.Point{Lat: 0, Lng: 1})

	assert.Len(t, WithinRadius([]*ListItem{it}, center, d), 1)
	assert.Empty(t, WithinRadius([]*ListItem{located("edge", 0, 1)}, center, d-0.001))
}
