package apartment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rentnest/rentnest-api/internal/pkg/bookingstatus"
	"github.com/rentnest/rentnest-api/internal/pkg/database"
	"github.com/rentnest/rentnest-api/internal/pkg/geo"
	"github.com/rentnest/rentnest-api/internal/pkg/money"
)

var dialect = goqu.Dialect("postgres")

// Box is a lat/lng pre-filter for radius searches. MinLng and MaxLng may
// lie beyond ±180 when the box crosses the antimeridian.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// LngRanges returns the box's longitude span split at the antimeridian.
func (b *Box) LngRanges() [][2]float64 {
	return geo.LngRanges(b.MinLng, b.MaxLng)
}

// Contains reports whether p lies inside the box.
func (b *Box) Contains(p geo.Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && geo.InLngRanges(p.Lng, b.LngRanges())
}

// SearchFilter represents search filters
type SearchFilter struct {
	Location     *string
	CheckIn      *time.Time
	CheckOut     *time.Time
	Guests       *int
	Bedrooms     *int
	Bathrooms    *int
	MinSize      *int
	MaxSize      *int
	MinPrice     *money.Cents
	MaxPrice     *money.Cents
	PropertyType *PropertyType
	Amenities    []string
	HasPhotos    *bool
	Box          *Box
	ViewerID     *uuid.UUID
	Ordering     string
}

// Pagination for listing
type Pagination struct {
	Page  int
	Limit int
}

// Orderings accepted by Search. A leading "-" sorts descending.
var Orderings = map[string]exp.OrderedExpression{
	"price_per_month":  goqu.I("a.price_per_month").Asc(),
	"-price_per_month": goqu.I("a.price_per_month").Desc(),
	"size_sqm":         goqu.I("a.size_sqm").Asc(),
	"-size_sqm":        goqu.I("a.size_sqm").Desc(),
	"created_at":       goqu.I("a.created_at").Asc(),
	"-created_at":      goqu.I("a.created_at").Desc(),
}

const DefaultOrdering = "-created_at"

// Stats are the review aggregates shown with a listing.
type Stats struct {
	AverageRating float64 `db:"average_rating" json:"average_rating"`
	ReviewCount   int     `db:"review_count" json:"review_count"`
}

// Repository defines apartment data access
type Repository interface {
	Create(ctx context.Context, a *Apartment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Apartment, error)
	Update(ctx context.Context, a *Apartment) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, pagination *Pagination) ([]*Apartment, int, error)

	// Search returns available listings matching f. A nil pagination returns
	// every match.
	Search(ctx context.Context, f *SearchFilter, pagination *Pagination) ([]*ListItem, int, error)
	// BlockingStays returns pending/approved stays on the given apartments
	// overlapping [start, end).
	BlockingStays(ctx context.Context, apartmentIDs []uuid.UUID, start, end time.Time) ([]Stay, error)
	Locations(ctx context.Context, q string, limit int) ([]Location, error)
	Stats(ctx context.Context, id uuid.UUID) (*Stats, error)

	// AddImage appends img after the existing images. The first image of an
	// apartment becomes primary.
	AddImage(ctx context.Context, img *Image) error
	GetImage(ctx context.Context, id uuid.UUID) (*Image, error)
	ListImages(ctx context.Context, apartmentID uuid.UUID) ([]*Image, error)
	// DeleteImage removes an image and promotes the next one if it was primary.
	DeleteImage(ctx context.Context, apartmentID, imageID uuid.UUID) error
	SetPrimaryImage(ctx context.Context, apartmentID, imageID uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates apartment repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

var apartmentColumnNames = []string{
	"id", "owner_id", "title", "description", "address", "city", "country",
	"price_per_night", "price_per_month", "bedrooms", "bathrooms", "size_sqm",
	"max_guests", "is_available", "latitude", "longitude", "property_type",
	"amenities", "created_at", "updated_at",
}

var (
	apartmentColumns = strings.Join(apartmentColumnNames, ", ")
	imageColumns     = `id, apartment_id, storage_key, thumbnail_key, url, thumbnail_url, caption, position, is_primary, created_at`
)

func (r *repository) Create(ctx context.Context, a *Apartment) error {
	query := `
		INSERT INTO apartments (` + apartmentColumns + `)
		VALUES (
			:id, :owner_id, :title, :description, :address, :city, :country,
			:price_per_night, :price_per_month, :bedrooms, :bathrooms, :size_sqm,
			:max_guests, :is_available, :latitude, :longitude, :property_type,
			:amenities, :created_at, :updated_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, a)
	return mapWriteError(err)
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Apartment, error) {
	var a Apartment
	err := r.db.GetContext(ctx, &a, `SELECT `+apartmentColumns+` FROM apartments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) Update(ctx context.Context, a *Apartment) error {
	query := `
		UPDATE apartments SET
			title = :title, description = :description, address = :address,
			city = :city, country = :country,
			price_per_night = :price_per_night, price_per_month = :price_per_month,
			bedrooms = :bedrooms, bathrooms = :bathrooms, size_sqm = :size_sqm,
			max_guests = :max_guests, is_available = :is_available,
			latitude = :latitude, longitude = :longitude,
			property_type = :property_type, amenities = :amenities,
			updated_at = :updated_at
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return mapWriteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrApartmentNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM apartments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrApartmentNotFound
	}
	return nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, pagination *Pagination) ([]*Apartment, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM apartments WHERE owner_id = $1`, ownerID); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apartmentColumns + ` FROM apartments
		WHERE owner_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	var out []*Apartment
	offset := (pagination.Page - 1) * pagination.Limit
	if err := r.db.SelectContext(ctx, &out, query, ownerID, pagination.Limit, offset); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// searchConditions renders f as WHERE clauses over apartments aliased "a".
func searchConditions(f *SearchFilter) []exp.Expression {
	where := []exp.Expression{goqu.I("a.is_available").IsTrue()}

	if f.Location != nil && *f.Location != "" {
		pattern := "%" + *f.Location + "%"
		where = append(where, goqu.Or(
			goqu.I("a.city").ILike(pattern),
			goqu.I("a.country").ILike(pattern),
			goqu.I("a.address").ILike(pattern),
		))
	}
	if f.CheckIn != nil && f.CheckOut != nil {
		occupied := dialect.From(goqu.T("bookings").As("bk")).
			Select(goqu.L("1")).
			Where(
				goqu.I("bk.apartment_id").Eq(goqu.I("a.id")),
				goqu.I("bk.status").In(bookingstatus.BlockingStrings()),
				goqu.I("bk.start_date").Lt(*f.CheckOut),
				goqu.I("bk.end_date").Gt(*f.CheckIn),
			)
		where = append(where, goqu.L("NOT EXISTS ?", occupied))
	}
	if f.Guests != nil {
		where = append(where,
			goqu.I("a.bedrooms").Gte((*f.Guests+1)/2),
			goqu.I("a.max_guests").Gte(*f.Guests),
		)
	}
	if f.Bedrooms != nil {
		where = append(where, goqu.I("a.bedrooms").Gte(*f.Bedrooms))
	}
	if f.Bathrooms != nil {
		where = append(where, goqu.I("a.bathrooms").Gte(*f.Bathrooms))
	}
	if f.MinSize != nil {
		where = append(where, goqu.I("a.size_sqm").Gte(*f.MinSize))
	}
	if f.MaxSize != nil {
		where = append(where, goqu.I("a.size_sqm").Lte(*f.MaxSize))
	}
	if f.MinPrice != nil {
		where = append(where, goqu.I("a.price_per_month").Gte(f.MinPrice.String()))
	}
	if f.MaxPrice != nil {
		where = append(where, goqu.I("a.price_per_month").Lte(f.MaxPrice.String()))
	}
	if f.PropertyType != nil {
		where = append(where, goqu.I("a.property_type").Eq(string(*f.PropertyType)))
	}
	if len(f.Amenities) > 0 {
		where = append(where, goqu.L("? @> ?", goqu.I("a.amenities"), pq.Array(f.Amenities)))
	}
	if f.HasPhotos != nil && *f.HasPhotos {
		where = append(where, goqu.L("EXISTS ?",
			dialect.From(goqu.T("apartment_images").As("ai")).
				Select(goqu.L("1")).
				Where(goqu.I("ai.apartment_id").Eq(goqu.I("a.id"))),
		))
	}
	if f.Box != nil {
		ranges := f.Box.LngRanges()
		lng := make([]exp.Expression, len(ranges))
		for i, rg := range ranges {
			lng[i] = goqu.I("a.longitude").Between(goqu.Range(rg[0], rg[1]))
		}
		where = append(where,
			goqu.I("a.latitude").Between(goqu.Range(f.Box.MinLat, f.Box.MaxLat)),
			goqu.Or(lng...),
		)
	}
	return where
}

func listItemColumns(viewerID *uuid.UUID) []interface{} {
	cols := make([]interface{}, 0, len(apartmentColumnNames)+4)
	for _, n := range apartmentColumnNames {
		cols = append(cols, goqu.I("a."+n))
	}

	favorited := goqu.L("false")
	if viewerID != nil {
		favorited = goqu.L("EXISTS (SELECT 1 FROM favorites f WHERE f.apartment_id = a.id AND f.user_id = ?)", *viewerID)
	}

	return append(cols,
		goqu.L("COALESCE((SELECT AVG(rv.rating)::float8 FROM reviews rv WHERE rv.apartment_id = a.id), 0)").As("average_rating"),
		goqu.L("(SELECT COUNT(*) FROM reviews rv WHERE rv.apartment_id = a.id)").As("review_count"),
		goqu.L("(SELECT ai.thumbnail_url FROM apartment_images ai WHERE ai.apartment_id = a.id AND ai.is_primary LIMIT 1)").As("primary_image_url"),
		favorited.As("is_favorited"),
	)
}

// searchDatasets builds the count and page queries for f.
func searchDatasets(f *SearchFilter, pagination *Pagination) (count, page *goqu.SelectDataset) {
	base := dialect.From(goqu.T("apartments").As("a")).Where(searchConditions(f)...)

	order, ok := Orderings[f.Ordering]
	if !ok {
		order = Orderings[DefaultOrdering]
	}

	page = base.Select(listItemColumns(f.ViewerID)...).Order(order, goqu.I("a.id").Asc())
	if pagination != nil {
		page = page.Limit(uint(pagination.Limit)).Offset(uint((pagination.Page - 1) * pagination.Limit))
	}
	return base.Select(goqu.COUNT("*")), page
}

func (r *repository) Search(ctx context.Context, f *SearchFilter, pagination *Pagination) ([]*ListItem, int, error) {
	countDS, pageDS := searchDatasets(f, pagination)

	countQuery, countArgs, err := countDS.Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query, args, err := pageDS.Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build search query: %w", err)
	}
	var out []*ListItem
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repository) BlockingStays(ctx context.Context, apartmentIDs []uuid.UUID, start, end time.Time) ([]Stay, error) {
	if len(apartmentIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(apartmentIDs))
	for i, id := range apartmentIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT apartment_id, start_date, end_date, status
		FROM bookings
		WHERE apartment_id = ANY($1::uuid[])
		  AND status = ANY($2)
		  AND start_date < $4
		  AND end_date > $3`
	var out []Stay
	if err := r.db.SelectContext(ctx, &out, query, pq.Array(ids), pq.Array(bookingstatus.BlockingStrings()), start, end); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Locations(ctx context.Context, q string, limit int) ([]Location, error) {
	query := `
		SELECT DISTINCT city, country
		FROM apartments
		WHERE is_available AND (city ILIKE $1 OR country ILIKE $1)
		ORDER BY city, country
		LIMIT $2`
	var out []Location
	if err := r.db.SelectContext(ctx, &out, query, "%"+q+"%", limit); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Stats(ctx context.Context, id uuid.UUID) (*Stats, error) {
	var s Stats
	query := `
		SELECT COALESCE(AVG(rating)::float8, 0) AS average_rating, COUNT(*) AS review_count
		FROM reviews WHERE apartment_id = $1`
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) AddImage(ctx context.Context, img *Image) error {
	return database.InTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		// Lock the parent so concurrent uploads agree on position and primary.
		var locked uuid.UUID
		err := tx.GetContext(ctx, &locked, `SELECT id FROM apartments WHERE id = $1 FOR UPDATE`, img.ApartmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrApartmentNotFound
		}
		if err != nil {
			return fmt.Errorf("lock apartment: %w", err)
		}

		var next struct {
			Position int  `db:"position"`
			Empty    bool `db:"empty"`
		}
		err = tx.GetContext(ctx, &next, `
			SELECT COALESCE(MAX(position) + 1, 0) AS position, COUNT(*) = 0 AS empty
			FROM apartment_images WHERE apartment_id = $1`, img.ApartmentID)
		if err != nil {
			return fmt.Errorf("next image position: %w", err)
		}
		img.Position = next.Position
		img.IsPrimary = next.Empty

		query := `INSERT INTO apartment_images (` + imageColumns + `)
			VALUES (:id, :apartment_id, :storage_key, :thumbnail_key, :url, :thumbnail_url, :caption, :position, :is_primary, :created_at)`
		_, err = tx.NamedExecContext(ctx, query, img)
		return mapWriteError(err)
	})
}

func (r *repository) GetImage(ctx context.Context, id uuid.UUID) (*Image, error) {
	var img Image
	err := r.db.GetContext(ctx, &img, `SELECT `+imageColumns+` FROM apartment_images WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *repository) ListImages(ctx context.Context, apartmentID uuid.UUID) ([]*Image, error) {
	var out []*Image
	query := `SELECT ` + imageColumns + ` FROM apartment_images WHERE apartment_id = $1 ORDER BY position, created_at`
	if err := r.db.SelectContext(ctx, &out, query, apartmentID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) DeleteImage(ctx context.Context, apartmentID, imageID uuid.UUID) error {
	return database.InTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		var wasPrimary bool
		err := tx.GetContext(ctx, &wasPrimary,
			`DELETE FROM apartment_images WHERE id = $1 AND apartment_id = $2 RETURNING is_primary`,
			imageID, apartmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrImageNotFound
		}
		if err != nil {
			return err
		}
		if !wasPrimary {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE apartment_images SET is_primary = true
			WHERE id = (
				SELECT id FROM apartment_images
				WHERE apartment_id = $1
				ORDER BY position, created_at
				LIMIT 1
			)`, apartmentID)
		return err
	})
}

func (r *repository) SetPrimaryImage(ctx context.Context, apartmentID, imageID uuid.UUID) error {
	return database.InTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		var ids []uuid.UUID
		err := tx.SelectContext(ctx, &ids,
			`SELECT id FROM apartment_images WHERE apartment_id = $1 FOR UPDATE`, apartmentID)
		if err != nil {
			return fmt.Errorf("lock images: %w", err)
		}

		found := false
		for _, id := range ids {
			if id == imageID {
				found = true
				break
			}
		}
		if !found {
			return ErrImageNotFound
		}

		// Clear first so the partial unique index never sees two primaries.
		if _, err := tx.ExecContext(ctx,
			`UPDATE apartment_images SET is_primary = false WHERE apartment_id = $1 AND is_primary`, apartmentID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE apartment_images SET is_primary = true WHERE id = $1`, imageID)
		return err
	})
}

// mapWriteError translates constraint violations into apartment errors.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	pqErr, ok := database.PQError(err)
	if !ok {
		return err
	}

	switch pqErr.Code {
	case database.CodeForeignKeyViolation:
		if pqErr.Constraint == "apartment_images_apartment_id_fkey" {
			return fmt.Errorf("%w: %w", ErrApartmentNotFound, err)
		}
	case database.CodeCheckViolation:
		switch pqErr.Constraint {
		case "apartments_max_guests_check":
			return fmt.Errorf("%w: %w", ErrInvalidGuestLimit, err)
		case "apartments_property_type_check":
			return fmt.Errorf("%w: %w", ErrInvalidPropertyType, err)
		}
	}
	return err
}
