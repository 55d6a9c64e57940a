package apartment

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
)

// memRepo is an in-memory Repository covering the filters the service
// relies on.
type memRepo struct {
	mu         sync.Mutex
	apartments map[uuid.UUID]*Apartment
	images     map[uuid.UUID]*Image
	stays      []Stay
	searches   []SearchFilter
	locQueries int
}

func newMemRepo() *memRepo {
	return &memRepo{apartments: map[uuid.UUID]*Apartment{}, images: map[uuid.UUID]*Image{}}
}

func (m *memRepo) Create(ctx context.Context, a *Apartment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.apartments[a.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*Apartment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apartments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) Update(ctx context.Context, a *Apartment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apartments[a.ID]; !ok {
		return ErrApartmentNotFound
	}
	cp := *a
	m.apartments[a.ID] = &cp
	return nil
}

func (m *memRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apartments[id]; !ok {
		return ErrApartmentNotFound
	}
	delete(m.apartments, id)
	for imgID, img := range m.images {
		if img.ApartmentID == id {
			delete(m.images, imgID)
		}
	}
	return nil
}

func (m *memRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, p *Pagination) ([]*Apartment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Apartment
	for _, a := range m.apartments {
		if a.OwnerID == ownerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Search(ctx context.Context, f *SearchFilter, p *Pagination) ([]*ListItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, *f)

	var out []*ListItem
	for _, a := range m.apartments {
		if !a.IsAvailable {
			continue
		}
		if f.Location != nil && !strings.Contains(strings.ToLower(a.City), strings.ToLower(*f.Location)) {
			continue
		}
		if f.Box != nil {
			pt, ok := a.Point()
			if !ok || !f.Box.Contains(pt) {
				continue
			}
		}
		if f.CheckIn != nil && m.busyLocked(a.ID, *f.CheckIn, *f.CheckOut) {
			continue
		}
		out = append(out, &ListItem{Apartment: *a})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })

	total := len(out)
	if p != nil {
		start := (p.Page - 1) * p.Limit
		if start > total {
			start = total
		}
		end := start + p.Limit
		if end > total {
			end = total
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (m *memRepo) busyLocked(id uuid.UUID, start, end time.Time) bool {
	for _, s := range m.stays {
		if s.ApartmentID == id && s.Status.BlocksCalendar() && daterange.Overlaps(s.Start, s.End, start, end) {
			return true
		}
	}
	return false
}

func (m *memRepo) BlockingStays(ctx context.Context, ids []uuid.UUID, start, end time.Time) ([]Stay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []Stay
	for _, s := range m.stays {
		if want[s.ApartmentID] && s.Status.BlocksCalendar() && daterange.Overlaps(s.Start, s.End, start, end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) Locations(ctx context.Context, q string, limit int) ([]Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locQueries++
	seen := map[Location]bool{}
	var out []Location
	for _, a := range m.apartments {
		l := Location{City: a.City, Country: a.Country}
		if seen[l] || !strings.Contains(strings.ToLower(a.City+" "+a.Country), strings.ToLower(q)) {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) Stats(ctx context.Context, id uuid.UUID) (*Stats, error) {
	return &Stats{}, nil
}

func (m *memRepo) AddImage(ctx context.Context, img *Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apartments[img.ApartmentID]; !ok {
		return ErrApartmentNotFound
	}
	count := 0
	for _, other := range m.images {
		if other.ApartmentID == img.ApartmentID {
			count++
		}
	}
	img.Position = count
	img.IsPrimary = count == 0
	cp := *img
	m.images[img.ID] = &cp
	return nil
}

func (m *memRepo) GetImage(ctx context.Context, id uuid.UUID) (*Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return nil, nil
	}
	cp := *img
	return &cp, nil
}

func (m *memRepo) ListImages(ctx context.Context, apartmentID uuid.UUID) ([]*Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Image
	for _, img := range m.images {
		if img.ApartmentID == apartmentID {
			cp := *img
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memRepo) DeleteImage(ctx context.Context, apartmentID, imageID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[imageID]
	if !ok || img.ApartmentID != apartmentID {
		return ErrImageNotFound
	}
	delete(m.images, imageID)
	if !img.IsPrimary {
		return nil
	}
	var next *Image
	for _, other := range m.images {
		if other.ApartmentID == apartmentID && (next == nil || other.Position < next.Position) {
			next = other
		}
	}
	if next != nil {
		next.IsPrimary = true
	}
	return nil
}

func (m *memRepo) SetPrimaryImage(ctx context.Context, apartmentID, imageID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.images[imageID]
	if !ok || target.ApartmentID != apartmentID {
		return ErrImageNotFound
	}
	for _, img := range m.images {
		if img.ApartmentID == apartmentID {
			img.IsPrimary = img.ID == imageID
		}
	}
	return nil
}

func (m *memRepo) primaryCount(apartmentID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, img := range m.images {
		if img.ApartmentID == apartmentID && img.IsPrimary {
			n++
		}
	}
	return n
}
