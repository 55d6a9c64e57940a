package apartment

import (
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
	"github.com/rentnest/rentnest-api/internal/pkg/geo"
	"github.com/rentnest/rentnest-api/internal/pkg/money"
)

// CreateRequest is the body of POST /apartments.
type CreateRequest struct {
	Title         string      `json:"title" validate:"required,min=3,max=200"`
	Description   string      `json:"description" validate:"max=5000"`
	Address       string      `json:"address" validate:"required,max=300"`
	City          string      `json:"city" validate:"required,max=100"`
	Country       string      `json:"country" validate:"required,max=100"`
	PricePerNight money.Cents `json:"price_per_night" validate:"gt=0"`
	PricePerMonth money.Cents `json:"price_per_month" validate:"gt=0"`
	Bedrooms      int         `json:"bedrooms" validate:"gte=0,lte=50"`
	Bathrooms     int         `json:"bathrooms" validate:"gte=0,lte=50"`
	SizeSqm       int         `json:"size_sqm" validate:"gte=0"`
	MaxGuests     *int        `json:"max_guests" validate:"omitempty,gte=1,lte=20"`
	Latitude      *float64    `json:"latitude" validate:"omitempty,latitude"`
	Longitude     *float64    `json:"longitude" validate:"omitempty,longitude"`
	PropertyType  string      `json:"property_type" validate:"required,property_type"`
	Amenities     []string    `json:"amenities" validate:"max=50,dive,max=50"`
}

func (req *CreateRequest) apply(a *Apartment) error {
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return ErrInvalidCoordinates
	}
	pt := PropertyType(req.PropertyType)
	if !pt.Valid() {
		return ErrInvalidPropertyType
	}

	a.Title = strings.TrimSpace(req.Title)
	a.Description = req.Description
	a.Address = strings.TrimSpace(req.Address)
	a.City = strings.TrimSpace(req.City)
	a.Country = strings.TrimSpace(req.Country)
	a.PricePerNight = req.PricePerNight
	a.PricePerMonth = req.PricePerMonth
	a.Bedrooms = req.Bedrooms
	a.Bathrooms = req.Bathrooms
	a.SizeSqm = req.SizeSqm
	if req.MaxGuests != nil {
		a.MaxGuests = *req.MaxGuests
	}
	a.Latitude = nullFloat(req.Latitude)
	a.Longitude = nullFloat(req.Longitude)
	a.PropertyType = pt
	a.Amenities = normalizeAmenities(req.Amenities)
	return nil
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Title         *string      `json:"title" validate:"omitempty,min=3,max=200"`
	Description   *string      `json:"description" validate:"omitempty,max=5000"`
	Address       *string      `json:"address" validate:"omitempty,max=300"`
	City          *string      `json:"city" validate:"omitempty,max=100"`
	Country       *string      `json:"country" validate:"omitempty,max=100"`
	PricePerNight *money.Cents `json:"price_per_night" validate:"omitempty,gt=0"`
	PricePerMonth *money.Cents `json:"price_per_month" validate:"omitempty,gt=0"`
	Bedrooms      *int         `json:"bedrooms" validate:"omitempty,gte=0,lte=50"`
	Bathrooms     *int         `json:"bathrooms" validate:"omitempty,gte=0,lte=50"`
	SizeSqm       *int         `json:"size_sqm" validate:"omitempty,gte=0"`
	MaxGuests     *int         `json:"max_guests" validate:"omitempty,gte=1,lte=20"`
	IsAvailable   *bool        `json:"is_available"`
	Latitude      *float64     `json:"latitude" validate:"omitempty,latitude"`
	Longitude     *float64     `json:"longitude" validate:"omitempty,longitude"`
	PropertyType  *string      `json:"property_type" validate:"omitempty,property_type"`
	Amenities     []string     `json:"amenities" validate:"omitempty,max=50,dive,max=50"`
}

func (req *UpdateRequest) apply(a *Apartment) error {
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return ErrInvalidCoordinates
	}
	if req.PropertyType != nil {
		pt := PropertyType(*req.PropertyType)
		if !pt.Valid() {
			return ErrInvalidPropertyType
		}
		a.PropertyType = pt
	}
	if req.MaxGuests != nil {
		if *req.MaxGuests < MinGuests || *req.MaxGuests > MaxGuests {
			return ErrInvalidGuestLimit
		}
		a.MaxGuests = *req.MaxGuests
	}

	if req.Title != nil {
		a.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Address != nil {
		a.Address = strings.TrimSpace(*req.Address)
	}
	if req.City != nil {
		a.City = strings.TrimSpace(*req.City)
	}
	if req.Country != nil {
		a.Country = strings.TrimSpace(*req.Country)
	}
	if req.PricePerNight != nil {
		a.PricePerNight = *req.PricePerNight
	}
	if req.PricePerMonth != nil {
		a.PricePerMonth = *req.PricePerMonth
	}
	if req.Bedrooms != nil {
		a.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		a.Bathrooms = *req.Bathrooms
	}
	if req.SizeSqm != nil {
		a.SizeSqm = *req.SizeSqm
	}
	if req.IsAvailable != nil {
		a.IsAvailable = *req.IsAvailable
	}
	if req.Latitude != nil {
		a.Latitude = nullFloat(req.Latitude)
		a.Longitude = nullFloat(req.Longitude)
	}
	if req.Amenities != nil {
		a.Amenities = normalizeAmenities(req.Amenities)
	}
	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// normalizeAmenities lower-cases, trims and de-duplicates.
func normalizeAmenities(in []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// SearchQuery is the query string of GET /apartments.
type SearchQuery struct {
	Location     string   `schema:"location" validate:"max=100"`
	CheckIn      string   `schema:"check_in" validate:"omitempty,date"`
	CheckOut     string   `schema:"check_out" validate:"omitempty,date"`
	Guests       *int     `schema:"guests" validate:"omitempty,gte=1,lte=20"`
	Bedrooms     *int     `schema:"bedrooms" validate:"omitempty,gte=0"`
	Bathrooms    *int     `schema:"bathrooms" validate:"omitempty,gte=0"`
	MinSize      *int     `schema:"min_size" validate:"omitempty,gte=0"`
	MaxSize      *int     `schema:"max_size" validate:"omitempty,gte=0"`
	MinPrice     string   `schema:"min_price"`
	MaxPrice     string   `schema:"max_price"`
	PropertyType string   `schema:"property_type" validate:"omitempty,property_type"`
	Amenities    []string `schema:"amenities"`
	HasPhotos    *bool    `schema:"has_photos"`
	Lat          *float64 `schema:"lat" validate:"omitempty,latitude"`
	Lng          *float64 `schema:"lng" validate:"omitempty,longitude"`
	RadiusKm     *float64 `schema:"radius_km" validate:"omitempty,gt=0,lte=500"`
	Ordering     string   `schema:"ordering" validate:"omitempty,oneof=price_per_month -price_per_month size_sqm -size_sqm created_at -created_at"`
	Page         int      `schema:"page"`
	Limit        int      `schema:"limit"`
}

// ToFilter checks cross-field rules and converts q into a filter and an
// optional radius.
func (q *SearchQuery) ToFilter() (*SearchFilter, *Radius, error) {
	f := &SearchFilter{
		Guests:    q.Guests,
		Bedrooms:  q.Bedrooms,
		Bathrooms: q.Bathrooms,
		MinSize:   q.MinSize,
		MaxSize:   q.MaxSize,
		HasPhotos: q.HasPhotos,
		Ordering:  q.Ordering,
	}
	if loc := strings.TrimSpace(q.Location); loc != "" {
		f.Location = &loc
	}

	if (q.CheckIn == "") != (q.CheckOut == "") {
		return nil, nil, ErrDatesIncomplete
	}
	if q.CheckIn != "" {
		in, err := daterange.Parse(q.CheckIn)
		if err != nil {
			return nil, nil, ErrInvalidDateRange
		}
		out, err := daterange.Parse(q.CheckOut)
		if err != nil {
			return nil, nil, ErrInvalidDateRange
		}
		if !in.Before(out) {
			return nil, nil, ErrInvalidDateRange
		}
		f.CheckIn, f.CheckOut = &in, &out
	}

	var err error
	if f.MinPrice, err = parsePrice(q.MinPrice); err != nil {
		return nil, nil, err
	}
	if f.MaxPrice, err = parsePrice(q.MaxPrice); err != nil {
		return nil, nil, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, nil, ErrInvalidPriceRange
	}

	if q.PropertyType != "" {
		pt := PropertyType(q.PropertyType)
		f.PropertyType = &pt
	}
	if len(q.Amenities) > 0 {
		f.Amenities = normalizeAmenities(q.Amenities)
	}

	set := 0
	for _, v := range []*float64{q.Lat, q.Lng, q.RadiusKm} {
		if v != nil {
			set++
		}
	}
	switch set {
	case 0:
		return f, nil, nil
	case 3:
		return f, &Radius{Center: geo.Point{Lat: *q.Lat, Lng: *q.Lng}, Km: *q.RadiusKm}, nil
	default:
		return nil, nil, ErrRadiusIncomplete
	}
}

func parsePrice(s string) (*money.Cents, error) {
	if s == "" {
		return nil, nil
	}
	c, err := money.Parse(s)
	if err != nil || c < 0 {
		return nil, ErrInvalidPriceRange
	}
	return &c, nil
}

// ApartmentResponse represents apartment in API response
type ApartmentResponse struct {
	ID            string      `json:"id"`
	OwnerID       string      `json:"owner_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	Country       string      `json:"country"`
	PricePerNight money.Cents `json:"price_per_night"`
	PricePerMonth money.Cents `json:"price_per_month"`
	Bedrooms      int         `json:"bedrooms"`
	Bathrooms     int         `json:"bathrooms"`
	SizeSqm       int         `json:"size_sqm"`
	MaxGuests     int         `json:"max_guests"`
	IsAvailable   bool        `json:"is_available"`
	Latitude      *float64    `json:"latitude"`
	Longitude     *float64    `json:"longitude"`
	PropertyType  string      `json:"property_type"`
	Amenities     []string    `json:"amenities"`
	CreatedAt     string      `json:"created_at"`
	UpdatedAt     string      `json:"updated_at"`
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// ApartmentResponseFromEntity converts entity to response
func ApartmentResponseFromEntity(a *Apartment) *ApartmentResponse {
	amenities := []string(a.Amenities)
	if amenities == nil {
		amenities = []string{}
	}
	return &ApartmentResponse{
		ID:            a.ID.String(),
		OwnerID:       a.OwnerID.String(),
		Title:         a.Title,
		Description:   a.Description,
		Address:       a.Address,
		City:          a.City,
		Country:       a.Country,
		PricePerNight: a.PricePerNight,
		PricePerMonth: a.PricePerMonth,
		Bedrooms:      a.Bedrooms,
		Bathrooms:     a.Bathrooms,
		SizeSqm:       a.SizeSqm,
		MaxGuests:     a.MaxGuests,
		IsAvailable:   a.IsAvailable,
		Latitude:      floatPtr(a.Latitude),
		Longitude:     floatPtr(a.Longitude),
		PropertyType:  string(a.PropertyType),
		Amenities:     amenities,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.Format(time.RFC3339),
	}
}

// ListItemResponse is one search hit.
type ListItemResponse struct {
	*ApartmentResponse
	AverageRating float64  `json:"average_rating"`
	ReviewCount   int      `json:"review_count"`
	PrimaryImage  *string  `json:"primary_image"`
	IsFavorited   bool     `json:"is_favorited"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
}

// ListItemResponseFromEntity converts a search hit to response
func ListItemResponseFromEntity(it *ListItem) *ListItemResponse {
	resp := &ListItemResponse{
		ApartmentResponse: ApartmentResponseFromEntity(&it.Apartment),
		AverageRating:     roundTo(it.AverageRating, 2),
		ReviewCount:       it.ReviewCount,
		IsFavorited:       it.IsFavorited,
	}
	if it.PrimaryImageURL.Valid {
		u := it.PrimaryImageURL.String
		resp.PrimaryImage = &u
	}
	if it.DistanceKm != nil {
		d := roundTo(*it.DistanceKm, 2)
		resp.DistanceKm = &d
	}
	return resp
}

func roundTo(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

// ImageResponse represents a gallery image
type ImageResponse struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Caption      string `json:"caption"`
	Position     int    `json:"position"`
	IsPrimary    bool   `json:"is_primary"`
	CreatedAt    string `json:"created_at"`
}

// ImageResponseFromEntity converts entity to response
func ImageResponseFromEntity(img *Image) *ImageResponse {
	return &ImageResponse{
		ID:           img.ID.String(),
		URL:          img.URL,
		ThumbnailURL: img.ThumbnailURL,
		Caption:      img.Caption,
		Position:     img.Position,
		IsPrimary:    img.IsPrimary,
		CreatedAt:    img.CreatedAt.Format(time.RFC3339),
	}
}

// DetailResponse is GET /apartments/{id}.
type DetailResponse struct {
	*ApartmentResponse
	Images        []*ImageResponse `json:"images"`
	AverageRating float64          `json:"average_rating"`
	ReviewCount   int              `json:"review_count"`
}

// DetailResponseFromEntity converts a detail view to response
func DetailResponseFromEntity(d *Detail) *DetailResponse {
	images := make([]*ImageResponse, len(d.Images))
	for i, img := range d.Images {
		images[i] = ImageResponseFromEntity(img)
	}
	return &DetailResponse{
		ApartmentResponse: ApartmentResponseFromEntity(d.Apartment),
		Images:            images,
		AverageRating:     roundTo(d.Stats.AverageRating, 2),
		ReviewCount:       d.Stats.ReviewCount,
	}
}

// LocationResponse is an autocomplete suggestion.
type LocationResponse struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Label   string `json:"label"`
}
