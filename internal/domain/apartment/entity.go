package apartment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rentnest/rentnest-api/internal/pkg/geo"
	"github.com/rentnest/rentnest-api/internal/pkg/money"
)

// PropertyType is the kind of dwelling.
type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyStudio    PropertyType = "studio"
	PropertyRoom      PropertyType = "room"
	PropertyVilla     PropertyType = "villa"
)

// Valid reports whether p is a known property type.
func (p PropertyType) Valid() bool {
	switch p {
	case PropertyApartment, PropertyHouse, PropertyStudio, PropertyRoom, PropertyVilla:
		return true
	}
	return false
}

// Guest limits enforced by the apartments_max_guests_check constraint.
const (
	MinGuests       = 1
	MaxGuests       = 20
	DefaultMaxGuest = 2
)

// Apartment represents a rental listing
type Apartment struct {
	ID            uuid.UUID       `db:"id"`
	OwnerID       uuid.UUID       `db:"owner_id"`
	Title         string          `db:"title"`
	Description   string          `db:"description"`
	Address       string          `db:"address"`
	City          string          `db:"city"`
	Country       string          `db:"country"`
	PricePerNight money.Cents     `db:"price_per_night"`
	PricePerMonth money.Cents     `db:"price_per_month"`
	Bedrooms      int             `db:"bedrooms"`
	Bathrooms     int             `db:"bathrooms"`
	SizeSqm       int             `db:"size_sqm"`
	MaxGuests     int             `db:"max_guests"`
	IsAvailable   bool            `db:"is_available"`
	Latitude      sql.NullFloat64 `db:"latitude"`
	Longitude     sql.NullFloat64 `db:"longitude"`
	PropertyType  PropertyType    `db:"property_type"`
	Amenities     pq.StringArray  `db:"amenities"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// Point returns the apartment's coordinates, or false if it has none.
func (a *Apartment) Point() (geo.Point, bool) {
	if !a.Latitude.Valid || !a.Longitude.Valid {
		return geo.Point{}, false
	}
	return geo.Point{Lat: a.Latitude.Float64, Lng: a.Longitude.Float64}, true
}

// IsOwnedBy checks ownership
func (a *Apartment) IsOwnedBy(userID uuid.UUID) bool {
	return a.OwnerID == userID
}

// Image is a processed listing photo with its thumbnail.
type Image struct {
	ID           uuid.UUID `db:"id"`
	ApartmentID  uuid.UUID `db:"apartment_id"`
	StorageKey   string    `db:"storage_key"`
	ThumbnailKey string    `db:"thumbnail_key"`
	URL          string    `db:"url"`
	ThumbnailURL string    `db:"thumbnail_url"`
	Caption      string    `db:"caption"`
	Position     int       `db:"position"`
	IsPrimary    bool      `db:"is_primary"`
	CreatedAt    time.Time `db:"created_at"`
}

// ListItem is a search hit with its aggregates.
type ListItem struct {
	Apartment
	AverageRating   float64        `db:"average_rating"`
	ReviewCount     int            `db:"review_count"`
	PrimaryImageURL sql.NullString `db:"primary_image_url"`
	IsFavorited     bool           `db:"is_favorited"`
	DistanceKm      *float64       `db:"-"`
}

// Location is an autocomplete suggestion.
type Location struct {
	City    string `db:"city" json:"city"`
	Country string `db:"country" json:"country"`
}

// Label renders "City, Country".
func (l Location) Label() string {
	return l.City + ", " + l.Country
}
