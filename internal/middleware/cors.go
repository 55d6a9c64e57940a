package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSHandler allows the configured browser origins. A "*" entry opens the
// API to any origin, in which case cookies and auth headers are not shared.
func CORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	}
	for _, o := range allowedOrigins {
		if o == "*" {
			opts.AllowCredentials = false
			break
		}
	}
	return cors.Handler(opts)
}
