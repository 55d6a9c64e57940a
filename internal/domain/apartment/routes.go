package apartment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentnest/rentnest-api/internal/middleware"
)

// Routes returns apartment router. extra registers routes owned by other
// domains under /apartments, e.g. availability and reviews.
func (h *Handler) Routes(authMiddleware, optionalAuth func(http.Handler) http.Handler, extra ...func(r chi.Router)) chi.Router {
	r := chi.NewRouter()

	// Public
	r.With(optionalAuth).Get("/", h.Search)
	r.Get("/locations", h.Locations)

	// Landlord
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireLandlord())

		r.Post("/", h.Create)
		r.Get("/mine", h.ListMine)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/images", h.UploadImage)
		r.Delete("/{id}/images/{imageId}", h.DeleteImage)
		r.Post("/{id}/images/{imageId}/primary", h.SetPrimaryImage)
	})

	r.Get("/{id}", h.GetByID)

	for _, fn := range extra {
		fn(r)
	}
	return r
}
