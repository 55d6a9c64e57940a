package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rentnest/rentnest-api/internal/domain/user"
	"github.com/rentnest/rentnest-api/internal/pkg/jwt"
	"github.com/rentnest/rentnest-api/internal/pkg/password"
	"github.com/rentnest/rentnest-api/internal/pkg/signer"
)

// VerificationMailer delivers the email verification link.
type VerificationMailer interface {
	SendVerifyEmail(to, name, verifyURL string) bool
}

// Service handles authentication business logic
type Service struct {
	userRepo   user.Repository
	jwtService *jwt.Service
	tokens     TokenStore
	hasher     *password.Hasher
	verifier   *signer.Signer
	mailer     VerificationMailer
	verifyURL  string
	now        func() time.Time
}

// NewService creates auth service. verifyURL is the absolute URL of the
// verify-email endpoint; the signed token is appended as ?token=.
func NewService(userRepo user.Repository, jwtService *jwt.Service, tokens TokenStore, hasher *password.Hasher, verifier *signer.Signer, verifyURL string) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokens:     tokens,
		hasher:     hasher,
		verifier:   verifier,
		verifyURL:  verifyURL,
		now:        time.Now,
	}
}

// SetMailer enables verification emails.
func (s *Service) SetMailer(m VerificationMailer) {
	s.mailer = m
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates new user account and queues the verification email
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	email := user.NormalizeEmail(req.Email)

	if !user.CanRegisterAs(req.UserType) {
		return nil, ErrInvalidUserType
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
		UserType:     user.Type(req.UserType),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		// Lost a race with a concurrent sign-up.
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	auth, err := s.generateTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", u.ID.String()).
		Str("user_type", string(u.UserType)).
		Msg("user registered")

	return &RegisterResponse{
		AuthResponse:     *auth,
		VerificationSent: s.sendVerification(u),
	}, nil
}

// sendVerification is best-effort; a failure never fails the caller.
func (s *Service) sendVerification(u *user.User) bool {
	if s.mailer == nil {
		return false
	}
	link, err := s.VerificationLink(u.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to sign verification link")
		return false
	}
	return s.mailer.SendVerifyEmail(u.Email, u.FullName(), link)
}

// VerificationLink builds the signed verify-email URL for userID.
func (s *Service) VerificationLink(userID uuid.UUID) (string, error) {
	token, err := s.verifier.Sign(userID.String())
	if err != nil {
		return "", err
	}
	return s.verifyURL + "?token=" + url.QueryEscape(token), nil
}

// VerifyEmail checks a signed token and marks the address verified.
// Verifying twice is not an error.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*UserResponse, error) {
	value, err := s.verifier.Unsign(token)
	switch {
	case errors.Is(err, signer.ErrExpired):
		return nil, ErrVerificationExpired
	case err != nil:
		return nil, ErrInvalidVerificationToken
	}
	userID, err := uuid.Parse(value)
	if err != nil {
		return nil, ErrInvalidVerificationToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidVerificationToken
	}
	if !u.EmailVerified {
		if err := s.userRepo.UpdateEmailVerified(ctx, u.ID, true); err != nil {
			return nil, err
		}
		u.EmailVerified = true
	}

	resp := NewUserResponse(u)
	return &resp, nil
}

// ResendVerification queues a fresh link. It reports false when the address
// is already verified.
func (s *Service) ResendVerification(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, ErrUserNotFound
	}
	if u.EmailVerified {
		return false, nil
	}
	s.sendVerification(u)
	return true, nil
}

// Login authenticates user
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.userRepo.GetByEmail(ctx, user.NormalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if u == nil || !s.hasher.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}

	if err := s.userRepo.UpdateLastLogin(ctx, u.ID, s.now().UTC()); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("failed to record last login")
	}
	return s.generateTokens(ctx, u)
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	userID, err := s.tokens.Take(ctx, jwt.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return nil, err
		}
		return nil, fmt.Errorf("take refresh token: %w", err)
	}
	if userID != claims.UserID {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidRefreshToken
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}
	return s.generateTokens(ctx, u)
}

// Logout invalidates refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Delete(ctx, jwt.HashRefreshToken(refreshToken))
}

// GetCurrentUser returns current user by ID
func (s *Service) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	resp := NewUserResponse(u)
	return &resp, nil
}

// UpdateProfile changes name and phone of the current user
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	if err := s.userRepo.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp := NewUserResponse(u)
	return &resp, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	if !s.hasher.Verify(req.CurrentPassword, u.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	log.Info().Str("user_id", userID.String()).Msg("password changed")
	return nil
}

func (s *Service) generateTokens(ctx context.Context, u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, string(u.UserType), u.IsBanned)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}

	refreshToken, _, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	// Only the hash is stored; the raw token goes to the client.
	if err := s.tokens.Save(ctx, jwt.HashRefreshToken(refreshToken), u.ID, s.jwtService.GetRefreshTTL()); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResponse{
		User: NewUserResponse(u),
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:    "Bearer",
		},
	}, nil
}
