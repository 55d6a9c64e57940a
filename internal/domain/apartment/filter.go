package apartment

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/pkg/bookingstatus"
	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
	"github.com/rentnest/rentnest-api/internal/pkg/geo"
)

// Stay is a booked date range on an apartment.
type Stay struct {
	ApartmentID uuid.UUID            `db:"apartment_id"`
	Start       time.Time            `db:"start_date"`
	End         time.Time            `db:"end_date"`
	Status      bookingstatus.Status `db:"status"`
}

// FilterAvailable keeps the items with no blocking stay overlapping
// [checkIn, checkOut). Order is preserved.
func FilterAvailable(items []*ListItem, stays []Stay, checkIn, checkOut time.Time) []*ListItem {
	busy := make(map[uuid.UUID]bool)
	for _, s := range stays {
		if !s.Status.BlocksCalendar() {
			continue
		}
		if daterange.Overlaps(s.Start, s.End, checkIn, checkOut) {
			busy[s.ApartmentID] = true
		}
	}

	out := make([]*ListItem, 0, len(items))
	for _, it := range items {
		if !busy[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// WithinRadius keeps the items whose haversine distance from center is at
// most radiusKm, sets DistanceKm on them and sorts nearest first. Items
// without coordinates never qualify.
func WithinRadius(items []*ListItem, center geo.Point, radiusKm float64) []*ListItem {
	out := make([]*ListItem, 0, len(items))
	for _, it := range items {
		p, ok := it.Point()
		if !ok {
			continue
		}
		d := geo.Haversine(center, p)
		if d > radiusKm {
			continue
		}
		dist := d
		it.DistanceKm = &dist
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].DistanceKm < *out[j].DistanceKm
	})
	return out
}

// Radius is a distance search around a point.
type Radius struct {
	Center geo.Point
	Km     float64
}
