package user

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type is the account kind stored in users.user_type.
type Type string

const (
	TypeTenant   Type = "tenant"
	TypeLandlord Type = "landlord"
	TypeAdmin    Type = "admin"
)

// Valid reports whether t is a known user type.
func (t Type) Valid() bool {
	switch t {
	case TypeTenant, TypeLandlord, TypeAdmin:
		return true
	}
	return false
}

// User represents a user account
type User struct {
	ID            uuid.UUID    `db:"id"`
	Email         string       `db:"email"`
	PasswordHash  string       `db:"password_hash"`
	FirstName     string       `db:"first_name"`
	LastName      string       `db:"last_name"`
	Phone         string       `db:"phone"`
	UserType      Type         `db:"user_type"`
	EmailVerified bool         `db:"email_verified"`
	IsBanned      bool         `db:"is_banned"`
	LastLoginAt   sql.NullTime `db:"last_login_at"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

// FullName joins first and last name, falling back to the email.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// IsLandlord returns true if user lists apartments
func (u *User) IsLandlord() bool {
	return u.UserType == TypeLandlord
}

// IsAdmin returns true if user is an admin
func (u *User) IsAdmin() bool {
	return u.UserType == TypeAdmin
}

// RegistrationTypes are the user types open to self sign-up.
func RegistrationTypes() []Type {
	return []Type{TypeTenant, TypeLandlord}
}

// CanRegisterAs checks if t may be chosen at registration
func CanRegisterAs(t string) bool {
	for _, rt := range RegistrationTypes() {
		if string(rt) == t {
			return true
		}
	}
	return false
}

// NormalizeEmail lower-cases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
