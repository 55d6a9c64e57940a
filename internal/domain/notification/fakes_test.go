package notification

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/domain/user"
	"github.com/rentnest/rentnest-api/internal/pkg/email"
)

type memRepo struct {
	mu    sync.Mutex
	items []*Notification
	fail  error
}

func (m *memRepo) Create(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *memRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []*Notification
	for _, n := range m.items {
		if n.UserID == userID {
			mine = append(mine, n)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	total := len(mine)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return mine[offset:end], total, nil
}

func (m *memRepo) CountUnreadByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memRepo) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (m *memRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *memRepo) forUser(userID uuid.UUID) []*Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type pushed struct {
	userID  uuid.UUID
	payload any
}

type capturePusher struct {
	mu   sync.Mutex
	sent []pushed
}

func (p *capturePusher) SendToUser(userID uuid.UUID, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, pushed{userID: userID, payload: payload})
	return nil
}

type sentEmail struct {
	to      string
	created bool
	data    email.BookingEmail
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (m *captureMailer) SendBookingCreated(to string, data email.BookingEmail) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmail{to: to, created: true, data: data})
	return true
}

func (m *captureMailer) SendBookingStatus(to string, data email.BookingEmail) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmail{to: to, data: data})
	return true
}

type published struct {
	key string
	v   any
}

type capturePublisher struct {
	fail bool
	sent []published
}

func (p *capturePublisher) PublishJSON(ctx context.Context, key string, v any) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.sent = append(p.sent, published{key: key, v: v})
	return nil
}

type memUsers map[uuid.UUID]*user.User

func (m memUsers) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return m[id], nil
}
