package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rentnest/rentnest-api/internal/config"
	"github.com/rentnest/rentnest-api/internal/domain/admin"
	"github.com/rentnest/rentnest-api/internal/domain/apartment"
	"github.com/rentnest/rentnest-api/internal/domain/auth"
	"github.com/rentnest/rentnest-api/internal/domain/booking"
	"github.com/rentnest/rentnest-api/internal/domain/favorite"
	"github.com/rentnest/rentnest-api/internal/domain/notification"
	"github.com/rentnest/rentnest-api/internal/domain/review"
	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/jwt"
	pkgresponse "github.com/rentnest/rentnest-api/internal/pkg/response"
)

type routeHandlers struct {
	auth         *auth.Handler
	apartment    *apartment.Handler
	booking      *booking.Handler
	review       *review.Handler
	favorite     *favorite.Handler
	notification *notification.Handler
	admin        *admin.Handler
	ws           *notification.WSHandler
}

func newRouter(cfg *config.Config, jwtService *jwt.Service, h routeHandlers) chi.Router {
	authMiddleware := middleware.Auth(jwtService)
	optionalAuth := middleware.OptionalAuth(jwtService)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	if h.ws != nil {
		r.Get("/ws", h.ws.ServeHTTP)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	if cfg.ServeLocalFiles() {
		r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.LocalStoragePath))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/auth", h.auth.Routes(authMiddleware))
		r.Mount("/apartments", h.apartment.Routes(authMiddleware, optionalAuth,
			h.booking.ApartmentRoutes,
			h.review.ApartmentRoutes,
		))
		r.Mount("/bookings", h.booking.Routes(authMiddleware, h.review.BookingRoutes))
		r.Mount("/favorites", h.favorite.Routes(authMiddleware))
		r.Mount("/notifications", h.notification.Routes(authMiddleware))
		r.Mount("/admin", h.admin.Routes(authMiddleware))
	})

	return r
}
