package admin

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/domain/user"
)

// ListQuery is the query string of GET /admin/users.
type ListQuery struct {
	UserType string `schema:"user_type" validate:"omitempty,oneof=tenant landlord admin"`
	Banned   *bool  `schema:"banned"`
	Search   string `schema:"search" validate:"max=100"`
	Page     int    `schema:"page"`
	Limit    int    `schema:"limit"`
}

// Filter converts q to a repository filter.
func (q *ListQuery) Filter() *user.ListFilter {
	f := &user.ListFilter{Banned: q.Banned, Search: q.Search}
	if q.UserType != "" {
		t := user.Type(q.UserType)
		f.UserType = &t
	}
	return f
}

// BanRequest is the optional body of a ban.
type BanRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// UserResponse represents a user in admin views
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	UserType      string    `json:"user_type"`
	EmailVerified bool      `json:"email_verified"`
	IsBanned      bool      `json:"is_banned"`
	CreatedAt     string    `json:"created_at"`
	LastLoginAt   *string   `json:"last_login_at,omitempty"`
}

// UserResponseFromEntity converts entity to response
func UserResponseFromEntity(u *user.User) *UserResponse {
	resp := &UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		UserType:      string(u.UserType),
		EmailVerified: u.EmailVerified,
		IsBanned:      u.IsBanned,
		CreatedAt:     u.CreatedAt.Format(time.RFC3339),
	}
	if u.LastLoginAt.Valid {
		s := u.LastLoginAt.Time.Format(time.RFC3339)
		resp.LastLoginAt = &s
	}
	return resp
}
