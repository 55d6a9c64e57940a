package favorite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rentnest/rentnest-api/internal/pkg/database"
)

// Repository defines favorites data access
type Repository interface {
	// Toggle removes the favorite if present, otherwise adds it.
	Toggle(ctx context.Context, userID, apartmentID uuid.UUID, at time.Time) (ToggleResult, error)
	Remove(ctx context.Context, userID, apartmentID uuid.UUID) error
	Exists(ctx context.Context, userID, apartmentID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Listed, int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates favorites repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Toggle(ctx context.Context, userID, apartmentID uuid.UUID, at time.Time) (ToggleResult, error) {
	var result ToggleResult
	err := database.InTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM favorites WHERE user_id = $1 AND apartment_id = $2`, userID, apartmentID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			result = Removed
			return nil
		}

		// A concurrent toggle may have inserted first; that still leaves it added.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO favorites (id, user_id, apartment_id, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT ON CONSTRAINT favorites_user_apartment_key DO NOTHING`,
			uuid.New(), userID, apartmentID, at)
		if err != nil {
			return mapWriteError(err)
		}
		result = Added
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func (r *repository) Remove(ctx context.Context, userID, apartmentID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND apartment_id = $2`, userID, apartmentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

func (r *repository) Exists(ctx context.Context, userID, apartmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND apartment_id = $2)`, userID, apartmentID)
	return exists, err
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Listed, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT f.id, f.user_id, f.apartment_id, f.created_at,
		       a.title, a.city, a.country, a.price_per_night, a.price_per_month,
		       (SELECT i.thumbnail_url FROM apartment_images i
		         WHERE i.apartment_id = a.id AND i.is_primary) AS primary_image_url
		FROM favorites f
		JOIN apartments a ON a.id = f.apartment_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, f.id
		LIMIT $2 OFFSET $3
	`
	var out []*Listed
	if err := r.db.SelectContext(ctx, &out, query, userID, limit, offset); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func mapWriteError(err error) error {
	if database.HasCode(err, database.CodeForeignKeyViolation) &&
		database.ConstraintName(err) == "favorites_apartment_id_fkey" {
		return fmt.Errorf("%w: %w", ErrApartmentNotFound, err)
	}
	return err
}
