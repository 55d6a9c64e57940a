package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rentnest/rentnest-api/internal/pkg/database"
)

// Repository defines user data access interface
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, f *ListFilter, limit, offset int) ([]*User, int, error)
}

// ListFilter narrows the admin user listing.
type ListFilter struct {
	UserType *Type
	Banned   *bool
	// Search matches email or name, case-insensitively.
	Search string
}

var dialect = goqu.Dialect("postgres")

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const userColumns = `
	id, email, password_hash, first_name, last_name, phone, user_type,
	email_verified, is_banned, last_login_at, created_at, updated_at
`

// Create creates a new user
func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone, user_type, email_verified, is_banned, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :first_name, :last_name, :phone, :user_type, :email_verified, :is_banned, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GetByID returns user by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns user by email, compared case-insensitively
func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`, NormalizeEmail(email))
}

func (r *repository) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates the editable profile fields
func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, query, user.ID, user.FirstName, user.LastName, user.Phone)
}

// UpdateEmailVerified updates email verified status
func (r *repository) UpdateEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	return r.execOne(ctx, `UPDATE users SET email_verified = $2, updated_at = NOW() WHERE id = $1`, id, verified)
}

// UpdatePassword updates user password hash
func (r *repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
}

// SetBanned bans or unbans a user
func (r *repository) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	return r.execOne(ctx, `UPDATE users SET is_banned = $2, updated_at = NOW() WHERE id = $1`, id, banned)
}

// UpdateLastLogin updates last login timestamp
func (r *repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
}

// List returns users matching f, newest first, with the total match count.
func (r *repository) List(ctx context.Context, f *ListFilter, limit, offset int) ([]*User, int, error) {
	var where []exp.Expression
	if f.UserType != nil {
		where = append(where, goqu.C("user_type").Eq(string(*f.UserType)))
	}
	if f.Banned != nil {
		where = append(where, goqu.C("is_banned").Eq(*f.Banned))
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		where = append(where, goqu.Or(
			goqu.C("email").ILike(pattern),
			goqu.L("first_name || ' ' || last_name").ILike(pattern),
		))
	}

	base := dialect.From("users").Prepared(true).Where(where...)

	countSQL, countArgs, err := base.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, err
	}

	pageSQL, pageArgs, err := base.
		Select(goqu.L(userColumns)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Asc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list: %w", err)
	}
	var users []*User
	if err := r.db.SelectContext(ctx, &users, pageSQL, pageArgs...); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *repository) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	pqErr, ok := database.PQError(err)
	if !ok {
		return err
	}
	switch {
	case pqErr.Code == database.CodeUniqueViolation && pqErr.Constraint == "users_email_key":
		return fmt.Errorf("%w: %w", ErrEmailAlreadyExists, err)
	case pqErr.Code == database.CodeCheckViolation && pqErr.Constraint == "users_user_type_check":
		return fmt.Errorf("%w: %w", ErrInvalidUserType, err)
	}
	return err
}
