package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentnest/rentnest-api/internal/middleware"
)

// Routes returns admin router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireAdmin())

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Get("/{id}", h.GetUser)
		r.Post("/{id}/ban", h.Ban)
		r.Post("/{id}/unban", h.Unban)
		r.Post("/{id}/verify", h.VerifyEmail)
	})

	return r
}
