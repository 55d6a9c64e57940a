package favorite

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/pkg/money"
)

// ToggleRequest for POST /favorites/toggle
type ToggleRequest struct {
	ApartmentID string `json:"apartment_id" validate:"required,uuid"`
}

// ToggleResponse tells the client the new state
type ToggleResponse struct {
	Status      ToggleResult `json:"status"`
	ApartmentID uuid.UUID    `json:"apartment_id"`
}

// FavoriteResponse is one saved apartment
type FavoriteResponse struct {
	ID            uuid.UUID   `json:"id"`
	ApartmentID   uuid.UUID   `json:"apartment_id"`
	Title         string      `json:"title"`
	City          string      `json:"city"`
	Country       string      `json:"country"`
	PricePerNight money.Cents `json:"price_per_night"`
	PricePerMonth money.Cents `json:"price_per_month"`
	PrimaryImage  *string     `json:"primary_image,omitempty"`
	CreatedAt     string      `json:"created_at"`
}

// FavoriteResponseFromEntity converts a listed favorite
func FavoriteResponseFromEntity(l *Listed) *FavoriteResponse {
	resp := &FavoriteResponse{
		ID:            l.ID,
		ApartmentID:   l.ApartmentID,
		Title:         l.Title,
		City:          l.City,
		Country:       l.Country,
		PricePerNight: l.PricePerNight,
		PricePerMonth: l.PricePerMonth,
		CreatedAt:     l.CreatedAt.Format(time.RFC3339),
	}
	if l.PrimaryImageURL.Valid {
		resp.PrimaryImage = &l.PrimaryImageURL.String
	}
	return resp
}
