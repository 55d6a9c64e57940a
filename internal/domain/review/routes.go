package review

import (
	"github.com/go-chi/chi/v5"

	"github.com/rentnest/rentnest-api/internal/middleware"
)

// BookingRoutes mounts review creation on the authenticated bookings router.
func (h *Handler) BookingRoutes(r chi.Router) {
	r.With(middleware.RequireRole(middleware.RoleTenant)).Post("/{id}/review", h.Create)
}

// ApartmentRoutes mounts the public review listing on the apartments router.
func (h *Handler) ApartmentRoutes(r chi.Router) {
	r.Get("/{id}/reviews", h.ListByApartment)
	r.Get("/{id}/reviews/summary", h.Summary)
}
