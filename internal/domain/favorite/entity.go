package favorite

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/pkg/money"
)

// Favorite represents a bookmarked apartment
type Favorite struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	ApartmentID uuid.UUID `db:"apartment_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// Listed is a favorite with the apartment card fields.
type Listed struct {
	Favorite
	Title           string         `db:"title"`
	City            string         `db:"city"`
	Country         string         `db:"country"`
	PricePerNight   money.Cents    `db:"price_per_night"`
	PricePerMonth   money.Cents    `db:"price_per_month"`
	PrimaryImageURL sql.NullString `db:"primary_image_url"`
}

// ToggleResult reports what a toggle did.
type ToggleResult string

const (
	Added   ToggleResult = "added"
	Removed ToggleResult = "removed"
)
