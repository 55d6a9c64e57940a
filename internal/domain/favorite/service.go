package favorite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service handles favorites
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates favorites service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Toggle adds or removes apartmentID from userID's favorites.
func (s *Service) Toggle(ctx context.Context, userID, apartmentID uuid.UUID) (ToggleResult, error) {
	result, err := s.repo.Toggle(ctx, userID, apartmentID, s.now().UTC())
	if err != nil {
		return "", err
	}
	log.Debug().
		Str("user_id", userID.String()).
		Str("apartment_id", apartmentID.String()).
		Str("result", string(result)).
		Msg("favorite toggled")
	return result, nil
}

// Remove deletes a favorite.
func (s *Service) Remove(ctx context.Context, userID, apartmentID uuid.UUID) error {
	return s.repo.Remove(ctx, userID, apartmentID)
}

// IsFavorited reports whether userID saved apartmentID.
func (s *Service) IsFavorited(ctx context.Context, userID, apartmentID uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, userID, apartmentID)
}

// List pages through userID's favorites, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Listed, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, (page-1)*limit)
}
