package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/domain/user"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*user.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[uuid.UUID]*user.User)}
}

func (m *memUsers) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return user.ErrEmailAlreadyExists
		}
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) update(id uuid.UUID, fn func(u *user.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return user.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (m *memUsers) UpdateProfile(ctx context.Context, u *user.User) error {
	return m.update(u.ID, func(stored *user.User) {
		stored.FirstName, stored.LastName, stored.Phone = u.FirstName, u.LastName, u.Phone
	})
}

func (m *memUsers) UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	return m.update(id, func(u *user.User) { u.EmailVerified = verified })
}

func (m *memUsers) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.update(id, func(u *user.User) { u.PasswordHash = hash })
}

func (m *memUsers) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	return m.update(id, func(u *user.User) { u.IsBanned = banned })
}

func (m *memUsers) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.update(id, func(u *user.User) {
		u.LastLoginAt.Time, u.LastLoginAt.Valid = at, true
	})
}

func (m *memUsers) List(ctx context.Context, f *user.ListFilter, limit, offset int) ([]*user.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*user.User
	for _, u := range m.byID {
		cp := *u
		out = append(out, &cp)
	}
	return out, len(out), nil
}

type memTokens struct {
	mu     sync.Mutex
	hashes map[string]uuid.UUID
}

func newMemTokens() *memTokens {
	return &memTokens{hashes: make(map[string]uuid.UUID)}
}

func (m *memTokens) Save(ctx context.Context, hash string, userID uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[hash] = userID
	return nil
}

func (m *memTokens) Take(ctx context.Context, hash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.hashes[hash]
	if !ok {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	delete(m.hashes, hash)
	return id, nil
}

func (m *memTokens) Delete(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hashes, hash)
	return nil
}

type sentLink struct {
	to, name, url string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentLink
}

func (c *captureMailer) SendVerifyEmail(to, name, verifyURL string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentLink{to: to, name: name, url: verifyURL})
	return true
}

func (c *captureMailer) last() sentLink {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return sentLink{}
	}
	return c.sent[len(c.sent)-1]
}
