package review

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentnest/rentnest-api/internal/domain/booking"
	"github.com/rentnest/rentnest-api/internal/middleware"
)

func withIdentity(id uuid.UUID, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), id, role)))
		})
	}
}

func mount(h *Handler, id uuid.UUID, role string) chi.Router {
	r := chi.NewRouter()
	r.Route("/bookings", func(r chi.Router) {
		r.Use(withIdentity(id, role))
		h.BookingRoutes(r)
	})
	r.Route("/apartments", h.ApartmentRoutes)
	return r
}

func post(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, &buf))
	return rec
}

func TestHandlerCreate(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	b := f.stay(t, booking.StatusCompleted, "2024-04-01", "2024-04-05")
	tenant := mount(h, f.tenant, middleware.RoleTenant)

	rec := post(t, tenant, "/bookings/"+b.ID.String()+"/review", map[string]interface{}{"rating": 6})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = post(t, tenant, "/bookings/"+b.ID.String()+"/review", map[string]interface{}{"rating": 5, "comment": "Great"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = post(t, tenant, "/bookings/"+b.ID.String()+"/review", map[string]interface{}{"rating": 4})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(t, mount(h, f.apt.OwnerID, middleware.RoleLandlord), "/bookings/"+b.ID.String()+"/review", map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = post(t, tenant, "/bookings/nope/review", map[string]interface{}{"rating": 4})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerList(t *testing.T) {
	f := newFixture(t)
	router := mount(NewHandler(f.svc), f.tenant, middleware.RoleTenant)
	b := f.stay(t, booking.StatusCompleted, "2024-04-01", "2024-04-05")
	_, err := f.svc.Create(t.Context(), f.tenant, b.ID, &CreateRequest{Rating: 4})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apartments/"+f.apt.ID.String()+"/reviews", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data []ReviewResponse `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Meta.Total)
	assert.Equal(t, "Guest", env.Data[0].AuthorName)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apartments/"+f.apt.ID.String()+"/reviews/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"average_rating":4`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apartments/"+uuid.NewString()+"/reviews/summary", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
