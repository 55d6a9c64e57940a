package admin

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/domain/user"
	"github.com/rentnest/rentnest-api/internal/pkg/logger"
)

// UserStore is the user data the admin area manages.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	List(ctx context.Context, f *user.ListFilter, limit, offset int) ([]*user.User, int, error)
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
	UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error
}

// Service handles admin user management
type Service struct {
	users UserStore
}

// NewService creates admin service
func NewService(users UserStore) *Service {
	return &Service{users: users}
}

// ListUsers pages through users matching f.
func (s *Service) ListUsers(ctx context.Context, f *user.ListFilter, page, limit int) ([]*user.User, int, error) {
	return s.users.List(ctx, f, limit, (page-1)*limit)
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Ban blocks id from logging in and refreshing tokens. Access tokens already
// issued stay valid until they expire.
func (s *Service) Ban(ctx context.Context, adminID, id uuid.UUID, reason string) (*user.User, error) {
	if adminID == id {
		return nil, ErrCannotBanSelf
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() {
		return nil, ErrCannotBanAdmin
	}
	if err := s.setBanned(ctx, id, true); err != nil {
		return nil, err
	}
	u.IsBanned = true

	logger.FromContext(ctx).Info().
		Str("admin_id", adminID.String()).
		Str("user_id", id.String()).
		Str("reason", reason).
		Msg("user banned")
	return u, nil
}

// Unban lifts a ban.
func (s *Service) Unban(ctx context.Context, adminID, id uuid.UUID) (*user.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.setBanned(ctx, id, false); err != nil {
		return nil, err
	}
	u.IsBanned = false

	logger.FromContext(ctx).Info().
		Str("admin_id", adminID.String()).
		Str("user_id", id.String()).
		Msg("user unbanned")
	return u, nil
}

// VerifyEmail marks the user's email verified without a link.
func (s *Service) VerifyEmail(ctx context.Context, adminID, id uuid.UUID) (*user.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.EmailVerified {
		if err := s.users.UpdateEmailVerified(ctx, id, true); err != nil {
			return nil, mapUserError(err)
		}
		u.EmailVerified = true
	}
	return u, nil
}

func (s *Service) setBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	return mapUserError(s.users.SetBanned(ctx, id, banned))
}

func mapUserError(err error) error {
	if errors.Is(err, user.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}
