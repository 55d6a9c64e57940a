package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentnest/rentnest-api/internal/domain/user"
	"github.com/rentnest/rentnest-api/internal/middleware"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
	last  *user.ListFilter
}

func (m *memUsers) add(t user.Type, email string) *user.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &user.User{ID: uuid.New(), Email: email, UserType: t, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) List(ctx context.Context, f *user.ListFilter, limit, offset int) ([]*user.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = f
	var out []*user.User
	for _, u := range m.users {
		if f.UserType != nil && u.UserType != *f.UserType {
			continue
		}
		if f.Banned != nil && u.IsBanned != *f.Banned {
			continue
		}
		if f.Search != "" && !strings.Contains(u.Email, f.Search) {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *memUsers) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.IsBanned = banned
	return nil
}

func (m *memUsers) UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.EmailVerified = verified
	return nil
}

func router(users *memUsers, callerID uuid.UUID, role string) http.Handler {
	auth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), callerID, role)))
		})
	}
	return NewHandler(NewService(users)).Routes(auth)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, json.RawMessage) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env.Data
}

func TestAdminOnly(t *testing.T) {
	users := &memUsers{users: map[uuid.UUID]*user.User{}}
	h := router(users, uuid.New(), middleware.RoleLandlord)

	rec, _ := do(t, h, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUsers(t *testing.T) {
	users := &memUsers{users: map[uuid.UUID]*user.User{}}
	users.add(user.TypeTenant, "guest@example.com")
	users.add(user.TypeLandlord, "host@example.com")
	admin := users.add(user.TypeAdmin, "root@example.com")
	h := router(users, admin.ID, middleware.RoleAdmin)

	rec, data := do(t, h, http.MethodGet, "/users?user_type=landlord&search=host", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []UserResponse
	require.NoError(t, json.Unmarshal(data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "host@example.com", items[0].Email)
	assert.Equal(t, "host", users.last.Search)

	rec, _ = do(t, h, http.MethodGet, "/users?user_type=owner", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/users?banned=maybe", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBanLifecycle(t *testing.T) {
	users := &memUsers{users: map[uuid.UUID]*user.User{}}
	guest := users.add(user.TypeTenant, "guest@example.com")
	other := users.add(user.TypeAdmin, "ops@example.com")
	admin := users.add(user.TypeAdmin, "root@example.com")
	h := router(users, admin.ID, middleware.RoleAdmin)

	rec, data := do(t, h, http.MethodPost, "/users/"+guest.ID.String()+"/ban", `{"reason":"spam"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(data), `"is_banned":true`)
	assert.True(t, users.users[guest.ID].IsBanned)

	rec, data = do(t, h, http.MethodPost, "/users/"+guest.ID.String()+"/unban", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(data), `"is_banned":false`)

	rec, _ = do(t, h, http.MethodPost, "/users/"+guest.ID.String()+"/ban", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/users/"+other.ID.String()+"/ban", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec, _ = do(t, h, http.MethodPost, "/users/"+admin.ID.String()+"/ban", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec, _ = do(t, h, http.MethodPost, "/users/"+uuid.NewString()+"/ban", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, h, http.MethodPost, "/users/nope/ban", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEmail(t *testing.T) {
	users := &memUsers{users: map[uuid.UUID]*user.User{}}
	guest := users.add(user.TypeTenant, "guest@example.com")
	h := router(users, uuid.New(), middleware.RoleAdmin)

	rec, data := do(t, h, http.MethodPost, "/users/"+guest.ID.String()+"/verify", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(data), `"email_verified":true`)

	rec, _ = do(t, h, http.MethodGet, "/users/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
