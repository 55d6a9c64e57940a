package apartment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/cache"
	"github.com/rentnest/rentnest-api/internal/pkg/geo"
	"github.com/rentnest/rentnest-api/internal/pkg/imaging"
	"github.com/rentnest/rentnest-api/internal/pkg/storage"
)

const (
	detailTTL   = 5 * time.Minute
	locationTTL = 10 * time.Minute

	// MinLocationQuery is the shortest autocomplete query that hits the db.
	MinLocationQuery = 2
	maxLocations     = 5
)

// Detail is a listing with its gallery and rating aggregates.
type Detail struct {
	Apartment *Apartment `json:"apartment"`
	Images    []*Image   `json:"images"`
	Stats     Stats      `json:"stats"`
}

// Service handles apartment business logic
type Service struct {
	repo      Repository
	storage   storage.Storage
	images    *imaging.Processor
	details   *cache.Cache
	locations *cache.Cache
	now       func() time.Time
}

// NewService creates apartment service. rdb may be nil, which disables
// caching.
func NewService(repo Repository, store storage.Storage, processor *imaging.Processor, rdb *redis.Client) *Service {
	return &Service{
		repo:      repo,
		storage:   store,
		images:    processor,
		details:   cache.New(rdb, "apartment:detail:", detailTTL),
		locations: cache.New(rdb, "apartment:locations:", locationTTL),
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func canManage(a *Apartment, userID uuid.UUID, role string) bool {
	return role == middleware.RoleAdmin || a.IsOwnedBy(userID)
}

// managed loads apartment id and checks that the caller may edit it.
func (s *Service) managed(ctx context.Context, id, userID uuid.UUID, role string) (*Apartment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrApartmentNotFound
	}
	if !canManage(a, userID, role) {
		return nil, ErrNotApartmentOwner
	}
	return a, nil
}

// Create creates a listing owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateRequest) (*Apartment, error) {
	now := s.now().UTC()
	a := &Apartment{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		IsAvailable: true,
		MaxGuests:   DefaultMaxGuest,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := req.apply(a); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	log.Info().
		Str("apartment_id", a.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("apartment created")
	return a, nil
}

// GetByID returns the raw listing.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Apartment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrApartmentNotFound
	}
	return a, nil
}

// Detail returns the listing with images and stats, served from cache when
// possible.
func (s *Service) Detail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	var d Detail
	if s.details.Get(ctx, id.String(), &d) {
		return &d, nil
	}

	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	stats, err := s.repo.Stats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("apartment stats: %w", err)
	}

	d = Detail{Apartment: a, Images: images, Stats: *stats}
	s.details.Set(ctx, id.String(), &d)
	return &d, nil
}

// InvalidateDetail drops the cached detail of id, e.g. after a new review.
func (s *Service) InvalidateDetail(ctx context.Context, id uuid.UUID) {
	s.details.Delete(ctx, id.String())
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id, userID uuid.UUID, role string, req *UpdateRequest) (*Apartment, error) {
	a, err := s.managed(ctx, id, userID, role)
	if err != nil {
		return nil, err
	}
	if err := req.apply(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.InvalidateDetail(ctx, id)
	return a, nil
}

// Delete removes a listing and its stored images. Bookings cascade.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID, role string) error {
	if _, err := s.managed(ctx, id, userID, role); err != nil {
		return err
	}
	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.InvalidateDetail(ctx, id)

	for _, img := range images {
		s.deleteFiles(ctx, img)
	}
	return nil
}

// ListByOwner lists the caller's own listings.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID, pagination *Pagination) ([]*Apartment, int, error) {
	return s.repo.ListByOwner(ctx, ownerID, pagination)
}

// Search runs a listing search. Radius searches pre-filter by bounding box
// in SQL, then apply availability and exact distance in memory and are
// ordered nearest first.
func (s *Service) Search(ctx context.Context, f *SearchFilter, radius *Radius, pagination *Pagination) ([]*ListItem, int, error) {
	if radius == nil {
		return s.repo.Search(ctx, f, pagination)
	}

	minLat, maxLat, minLng, maxLng := geo.BoundingBox(radius.Center, radius.Km)
	boxed := *f
	boxed.Box = &Box{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
	// Availability is applied below so it can share the candidate set.
	boxed.CheckIn, boxed.CheckOut = nil, nil

	candidates, _, err := s.repo.Search(ctx, &boxed, nil)
	if err != nil {
		return nil, 0, err
	}

	if f.CheckIn != nil && f.CheckOut != nil && len(candidates) > 0 {
		ids := make([]uuid.UUID, len(candidates))
		for i, c := range candidates {
			ids[i] = c.ID
		}
		stays, err := s.repo.BlockingStays(ctx, ids, *f.CheckIn, *f.CheckOut)
		if err != nil {
			return nil, 0, fmt.Errorf("blocking stays: %w", err)
		}
		candidates = FilterAvailable(candidates, stays, *f.CheckIn, *f.CheckOut)
	}

	matches := WithinRadius(candidates, radius.Center, radius.Km)
	total := len(matches)

	start := (pagination.Page - 1) * pagination.Limit
	if start > total {
		start = total
	}
	end := start + pagination.Limit
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

// Locations suggests up to five city/country pairs matching q.
func (s *Service) Locations(ctx context.Context, q string) ([]Location, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinLocationQuery {
		return []Location{}, nil
	}

	key := strings.ToLower(q)
	var out []Location
	if s.locations.Get(ctx, key, &out) {
		return out, nil
	}

	out, err := s.repo.Locations(ctx, q, maxLocations)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Location{}
	}
	s.locations.Set(ctx, key, out)
	return out, nil
}

// UploadImage processes an uploaded photo into a bounded original and a
// thumbnail and appends it to the gallery.
func (s *Service) UploadImage(ctx context.Context, id, userID uuid.UUID, role string, filename string, r io.Reader, caption string) (*Image, error) {
	if _, err := s.managed(ctx, id, userID, role); err != nil {
		return nil, err
	}

	data, _, err := storage.ValidateFile(r, storage.CategoryImage, storage.MaxSizes[storage.CategoryImage])
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) || errors.Is(err, storage.ErrInvalidMimeType) || errors.Is(err, storage.ErrEmptyFile) {
			return nil, ErrInvalidImage
		}
		return nil, err
	}

	processed, err := s.images.Process(data)
	if err != nil {
		log.Warn().Err(err).Str("apartment_id", id.String()).Msg("image processing failed")
		return nil, ErrInvalidImage
	}

	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	key := storage.Key("apartments", id, base+processed.Ext)
	thumbKey := strings.TrimSuffix(key, processed.Ext) + "_thumb" + processed.Ext

	if err := s.storage.Save(ctx, key, storage.NewReader(processed.Original), processed.ContentType); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}
	if err := s.storage.Save(ctx, thumbKey, storage.NewReader(processed.Thumbnail), processed.ContentType); err != nil {
		_ = s.storage.Delete(ctx, key)
		return nil, fmt.Errorf("save thumbnail: %w", err)
	}

	img := &Image{
		ID:           uuid.New(),
		ApartmentID:  id,
		StorageKey:   key,
		ThumbnailKey: thumbKey,
		URL:          s.storage.GetURL(key),
		ThumbnailURL: s.storage.GetURL(thumbKey),
		Caption:      caption,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.AddImage(ctx, img); err != nil {
		s.deleteFiles(ctx, img)
		return nil, err
	}

	s.InvalidateDetail(ctx, id)
	return img, nil
}

// DeleteImage removes an image from the gallery and storage.
func (s *Service) DeleteImage(ctx context.Context, id, imageID, userID uuid.UUID, role string) error {
	if _, err := s.managed(ctx, id, userID, role); err != nil {
		return err
	}
	img, err := s.repo.GetImage(ctx, imageID)
	if err != nil {
		return err
	}
	if img == nil || img.ApartmentID != id {
		return ErrImageNotFound
	}

	if err := s.repo.DeleteImage(ctx, id, imageID); err != nil {
		return err
	}
	s.InvalidateDetail(ctx, id)
	s.deleteFiles(ctx, img)
	return nil
}

// SetPrimaryImage makes imageID the apartment's cover photo.
func (s *Service) SetPrimaryImage(ctx context.Context, id, imageID, userID uuid.UUID, role string) error {
	if _, err := s.managed(ctx, id, userID, role); err != nil {
		return err
	}
	if err := s.repo.SetPrimaryImage(ctx, id, imageID); err != nil {
		return err
	}
	s.InvalidateDetail(ctx, id)
	return nil
}

func (s *Service) deleteFiles(ctx context.Context, img *Image) {
	for _, key := range []string{img.StorageKey, img.ThumbnailKey} {
		if key == "" {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to delete image file")
		}
	}
}
