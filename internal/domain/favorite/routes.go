package favorite

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns favorites router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/toggle", h.Toggle)
	r.Get("/", h.List)
	r.Delete("/{apartmentId}", h.Remove)
	r.Get("/{apartmentId}/check", h.Check)

	return r
}
