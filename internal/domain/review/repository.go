package review

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rentnest/rentnest-api/internal/pkg/database"
)

// Repository defines review data access
type Repository interface {
	Create(ctx context.Context, review *Review) error
	ListByApartment(ctx context.Context, apartmentID uuid.UUID, limit, offset int) ([]*Listed, int, error)
	RatingCounts(ctx context.Context, apartmentID uuid.UUID) (map[int]int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a new review repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create inserts a new review
func (r *repository) Create(ctx context.Context, review *Review) error {
	query := `
		INSERT INTO reviews (id, booking_id, apartment_id, author_id, rating, comment, created_at, updated_at)
		VALUES (:id, :booking_id, :apartment_id, :author_id, :rating, :comment, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// ListByApartment returns reviews newest first with author names
func (r *repository) ListByApartment(ctx context.Context, apartmentID uuid.UUID, limit, offset int) ([]*Listed, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews WHERE apartment_id = $1`, apartmentID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT r.id, r.booking_id, r.apartment_id, r.author_id, r.rating, r.comment, r.created_at, r.updated_at,
		       u.first_name AS author_first_name, u.last_name AS author_last_name
		FROM reviews r
		JOIN users u ON u.id = r.author_id
		WHERE r.apartment_id = $1
		ORDER BY r.created_at DESC, r.id
		LIMIT $2 OFFSET $3
	`
	var out []*Listed
	if err := r.db.SelectContext(ctx, &out, query, apartmentID, limit, offset); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// RatingCounts returns how many reviews gave each rating
func (r *repository) RatingCounts(ctx context.Context, apartmentID uuid.UUID) (map[int]int, error) {
	query := `
		SELECT rating, COUNT(*) AS count
		FROM reviews
		WHERE apartment_id = $1
		GROUP BY rating
	`
	var rows []struct {
		Rating int `db:"rating"`
		Count  int `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, apartmentID); err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Count
	}
	return counts, nil
}

func mapWriteError(err error) error {
	pqErr, ok := database.PQError(err)
	if !ok {
		return err
	}
	switch {
	case pqErr.Code == database.CodeUniqueViolation && pqErr.Constraint == "reviews_booking_id_key":
		return fmt.Errorf("%w: %w", ErrAlreadyReviewed, err)
	case pqErr.Code == database.CodeForeignKeyViolation && pqErr.Constraint == "reviews_booking_id_fkey":
		return fmt.Errorf("%w: %w", ErrBookingNotFound, err)
	case pqErr.Code == database.CodeForeignKeyViolation && pqErr.Constraint == "reviews_apartment_id_fkey":
		return fmt.Errorf("%w: %w", ErrApartmentNotFound, err)
	}
	return err
}
