package auth

import "errors"

var (
	ErrEmailAlreadyExists       = errors.New("email already registered")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrInvalidUserType          = errors.New("user_type must be 'tenant' or 'landlord'")
	ErrInvalidRefreshToken      = errors.New("invalid or expired refresh token")
	ErrUserNotFound             = errors.New("user not found")
	ErrUserBanned               = errors.New("user is banned")
	ErrInvalidVerificationToken = errors.New("invalid verification link")
	ErrVerificationExpired      = errors.New("verification link has expired")
	ErrWrongPassword            = errors.New("current password is incorrect")
)
