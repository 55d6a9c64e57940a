package booking

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

	"github.com/rentnest/rentnest-api/internal/middleware"
)

// headerAuth trusts X-User-ID / X-Role, standing in for the JWT middleware.
func headerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get("X-User-ID"))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ctx := middleware.WithIdentity(r.Context(), id, r.Header.Get("X-Role"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

func do(t *testing.T, router http.Handler, method, path string, v Viewer, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", v.UserID.String())
	req.Header.Set("X-Role", v.Role)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func newRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	r.Mount("/bookings", NewHandler(f.svc).Routes(headerAuth))
	return r
}

func TestHandlerCreate(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	w, env := do(t, router, http.MethodPost, "/bookings", f.tenant, map[string]interface{}{
		"apartment_id": f.apt.ID.String(),
		"booking_type": "night",
		"start_date":   "2024-01-01",
		"end_date":     "2024-01-04",
		"guest_count":  2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "300.00", resp.TotalPrice.String())
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "none", resp.RefundStatus)
	assert.Equal(t, 3, resp.Nights)
	assert.Equal(t, "240.00", resp.RefundAmount.String())
}

func TestHandlerCreateErrors(t *testing.T) {
	f := newFixture(t)
	f.seed(t, StatusApproved, "2024-02-01", "2024-02-10")
	router := newRouter(f)

	valid := func(mod func(m map[string]interface{})) map[string]interface{} {
		m := map[string]interface{}{
			"apartment_id": f.apt.ID.String(),
			"booking_type": "night",
			"start_date":   "2024-03-01",
			"end_date":     "2024-03-04",
		}
		if mod != nil {
			mod(m)
		}
		return m
	}

	tests := []struct {
		name    string
		viewer  Viewer
		body    interface{}
		status  int
		message string
	}{
		{"malformed json", f.tenant, "{", http.StatusBadRequest, ""},
		{"missing fields", f.tenant, map[string]string{}, http.StatusUnprocessableEntity, "Validation failed"},
		{"bad date", f.tenant, valid(func(m map[string]interface{}) { m["start_date"] = "03/01/2024" }), http.StatusUnprocessableEntity, ""},
		{"invalid type", f.tenant, valid(func(m map[string]interface{}) { m["booking_type"] = "week" }), http.StatusUnprocessableEntity, "invalid booking type"},
		{"checkout before checkin", f.tenant, valid(func(m map[string]interface{}) { m["end_date"] = "2024-02-28" }), http.StatusUnprocessableEntity, "checkout must be after checkin"},
		{"over capacity", f.tenant, valid(func(m map[string]interface{}) { m["guest_count"] = 9 }), http.StatusUnprocessableEntity, "guest count exceeds capacity (max 4)"},
		{"overlap", f.tenant, valid(func(m map[string]interface{}) {
			m["start_date"], m["end_date"] = "2024-02-05", "2024-02-07"
		}), http.StatusConflict, "apartment not available for selected dates"},
		{"unknown apartment", f.tenant, valid(func(m map[string]interface{}) { m["apartment_id"] = uuid.NewString() }), http.StatusNotFound, "apartment not found"},
		{"landlords cannot book", f.owner, valid(nil), http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, router, http.MethodPost, "/bookings", tt.viewer, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			require.NotNil(t, env.Error)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Error.Message)
			}
		})
	}
}

func TestHandlerTransitions(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	b := f.seed(t, StatusPending, "2024-02-01", "2024-02-04")
	tenant := Viewer{UserID: b.TenantID, Role: middleware.RoleTenant}

	w, _ := do(t, router, http.MethodPost, "/bookings/"+b.ID.String()+"/approve", tenant, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := do(t, router, http.MethodPost, "/bookings/"+b.ID.String()+"/approve", f.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp BookingResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "approved", resp.Status)
	assert.NotNil(t, resp.ApprovedAt)

	w, _ = do(t, router, http.MethodPost, "/bookings/"+b.ID.String()+"/approve", f.owner, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, router, http.MethodPost, "/bookings/"+b.ID.String()+"/request-refund", tenant, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, router, http.MethodPost, "/bookings/"+b.ID.String()+"/process-refund", f.owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, router, http.MethodPost, "/bookings/not-a-uuid/cancel", tenant, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodPost, "/bookings/"+uuid.NewString()+"/cancel", tenant, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerList(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	b := f.seed(t, StatusPending, "2024-02-01", "2024-02-04")
	f.seed(t, StatusPending, "2024-03-01", "2024-03-04")
	tenant := Viewer{UserID: b.TenantID, Role: middleware.RoleTenant}

	w, env := do(t, router, http.MethodGet, "/bookings", tenant, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 1, env.Meta.Total)

	w, env = do(t, router, http.MethodGet, "/bookings", f.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, env.Meta.Total)

	w, env = do(t, router, http.MethodGet, "/bookings?status=archived", tenant, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Error.Details, "status")

	w, _ = do(t, router, http.MethodGet, "/bookings?page=two", tenant, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
