package booking

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentnest/rentnest-api/internal/middleware"
)

// Routes returns booking router. extra lets sibling domains hang routes
// under /bookings, e.g. reviews.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler, extra ...func(r chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.With(middleware.RequireRole(middleware.RoleTenant)).Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)

	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/reject", h.Reject)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/request-refund", h.RequestRefund)
	r.Post("/{id}/process-refund", h.ProcessRefund)

	r.Post("/{id}/documents", h.UploadDocument)
	r.Get("/{id}/documents", h.ListDocuments)

	for _, fn := range extra {
		fn(r)
	}
	return r
}

// ApartmentRoutes registers booking-backed routes on the apartments router.
func (h *Handler) ApartmentRoutes(r chi.Router) {
	r.Get("/{id}/availability", h.Availability)
}
