package notification

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/pkg/logger"
)

// Pusher delivers a realtime payload to a user's open connections.
type Pusher interface {
	SendToUser(userID uuid.UUID, payload any) error
}

// Service manages the in-app inbox
type Service struct {
	repo   Repository
	pusher Pusher
	now    func() time.Time
}

// NewService creates notification service. pusher may be nil.
func NewService(repo Repository, pusher Pusher) *Service {
	return &Service{repo: repo, pusher: pusher, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create stores a notification for userID and pushes it to the user's open
// sockets together with the new unread count.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, typ Type, title, body string, data *Data) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      sql.NullString{String: body, Valid: body != ""},
		CreatedAt: s.now().UTC(),
	}
	n.SetData(data)

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.pusher != nil {
		s.push(ctx, n)
	}
	return n, nil
}

func (s *Service) push(ctx context.Context, n *Notification) {
	l := logger.FromContext(ctx)

	unread, err := s.repo.CountUnreadByUser(ctx, n.UserID)
	if err != nil {
		l.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("count unread notifications")
	}
	payload := map[string]interface{}{
		"type": "notification:new",
		"data": map[string]interface{}{
			"notification": NotificationResponseFromEntity(n),
			"unread_count": unread,
		},
	}
	if err := s.pusher.SendToUser(n.UserID, payload); err != nil {
		l.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("push notification")
	}
}

// List pages through userID's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, (page-1)*limit)
}

// UnreadCount returns the number of unread notifications.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnreadByUser(ctx, userID)
}

// MarkAsRead marks one notification read.
func (s *Service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

// MarkAllAsRead marks every notification of userID read.
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
