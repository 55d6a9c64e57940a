package booking

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
	"github.com/lib/pq"

	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/bookingstatus"
	"github.com/rentnest/rentnest-api/internal/pkg/database"
)

var dialect = goqu.Dialect("postgres")

// Scope narrows a listing by date relative to today.
type Scope string

const (
	ScopeAll    Scope = ""
	ScopeActive Scope = "active"
	ScopePast   Scope = "past"
	ScopeFuture Scope = "future"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopeAll, ScopeActive, ScopePast, ScopeFuture:
		return true
	}
	return false
}

// Viewer is whoever is listing bookings.
type Viewer struct {
	UserID uuid.UUID
	Role   string
}

// ListFilter selects bookings visible to a viewer.
type ListFilter struct {
	Viewer   Viewer
	Status   *Status
	Scope    Scope
	Today    time.Time
	Ordering string
}

// Pagination for listing
type Pagination struct {
	Page  int
	Limit int
}

// Orderings accepted by List. A leading "-" sorts descending.
var Orderings = map[string]exp.OrderedExpression{
	"created_at":  goqu.I("b.created_at").Asc(),
	"-created_at": goqu.I("b.created_at").Desc(),
	"start_date":  goqu.I("b.start_date").Asc(),
	"-start_date": goqu.I("b.start_date").Desc(),
}

const DefaultOrdering = "-created_at"

// Repository defines booking data access
type Repository interface {
	// Create inserts b if its dates are still free. Concurrent creates on one
	// apartment are serialized by a row lock on the apartment.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// ListBlocking returns pending/approved bookings on an apartment that
	// overlap [start, end).
	ListBlocking(ctx context.Context, apartmentID uuid.UUID, start, end time.Time) ([]*Booking, error)
	// Transition locks the booking row, passes it to fn and writes the result
	// only if status and refund_status are unchanged.
	Transition(ctx context.Context, id uuid.UUID, fn func(current Booking) (Booking, error)) (*Booking, error)
	// CompleteStale marks the viewer's overdue pending/approved bookings
	// completed and returns the rows it changed.
	CompleteStale(ctx context.Context, viewer Viewer, today, now time.Time) ([]*Booking, error)
	List(ctx context.Context, filter *ListFilter, pagination *Pagination) ([]*Booking, int, error)

	CreateDocument(ctx context.Context, d *Document) error
	ListDocuments(ctx context.Context, bookingID uuid.UUID) ([]*Document, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates booking repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const bookingColumns = `
	id, tenant_id, apartment_id, booking_type, start_date, end_date,
	guest_count, message, total_price, status, payment_status, refund_status,
	created_at, updated_at, approved_at, rejected_at, cancelled_at,
	refund_requested_at, refund_processed_at, refunded_at
`

func qualifiedColumns() []interface{} {
	names := []string{
		"id", "tenant_id", "apartment_id", "booking_type", "start_date", "end_date",
		"guest_count", "message", "total_price", "status", "payment_status", "refund_status",
		"created_at", "updated_at", "approved_at", "rejected_at", "cancelled_at",
		"refund_requested_at", "refund_processed_at", "refunded_at",
	}
	cols := make([]interface{}, len(names))
	for i, n := range names {
		cols[i] = goqu.I("b." + n)
	}
	return cols
}

func blockingStatusStrings() []string {
	return bookingstatus.BlockingStrings()
}

func (r *repository) Create(ctx context.Context, b *Booking) error {
	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	return database.InTx(ctx, r.db, opts, func(tx *sqlx.Tx) error {
		var locked uuid.UUID
		err := tx.GetContext(ctx, &locked, `SELECT id FROM apartments WHERE id = $1 FOR UPDATE`, b.ApartmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrApartmentNotFound
		}
		if err != nil {
			return fmt.Errorf("lock apartment: %w", err)
		}

		var clash bool
		err = tx.GetContext(ctx, &clash, `
			SELECT EXISTS(
				SELECT 1 FROM bookings
				WHERE apartment_id = $1
				  AND status = ANY($2)
				  AND start_date < $4
				  AND end_date > $3
			)`, b.ApartmentID, pq.Array(blockingStatusStrings()), b.StartDate, b.EndDate)
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if clash {
			return ErrUnavailable
		}

		query := `
			INSERT INTO bookings (
				id, tenant_id, apartment_id, booking_type, start_date, end_date,
				guest_count, message, total_price, status, payment_status, refund_status,
				created_at, updated_at
			) VALUES (
				:id, :tenant_id, :apartment_id, :booking_type, :start_date, :end_date,
				:guest_count, :message, :total_price, :status, :payment_status, :refund_status,
				:created_at, :updated_at
			)`
		if _, err := tx.NamedExecContext(ctx, query, b); err != nil {
			return mapWriteError(err)
		}
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListBlocking(ctx context.Context, apartmentID uuid.UUID, start, end time.Time) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE apartment_id = $1
		  AND status = ANY($2)
		  AND start_date < $4
		  AND end_date > $3
		ORDER BY start_date`

	var out []*Booking
	if err := r.db.SelectContext(ctx, &out, query, apartmentID, pq.Array(blockingStatusStrings()), start, end); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, fn func(current Booking) (Booking, error)) (*Booking, error) {
	var result *Booking

	err := database.InTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		var current Booking
		err := tx.GetContext(ctx, &current, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE bookings SET
				status = $4,
				payment_status = $5,
				refund_status = $6,
				approved_at = $7,
				rejected_at = $8,
				cancelled_at = $9,
				refund_requested_at = $10,
				refund_processed_at = $11,
				refunded_at = $12,
				updated_at = $13
			WHERE id = $1 AND status = $2 AND refund_status = $3`,
			id, current.Status, current.RefundStatus,
			next.Status, next.PaymentStatus, next.RefundStatus,
			next.ApprovedAt, next.RejectedAt, next.CancelledAt,
			next.RefundRequestedAt, next.RefundProcessedAt, next.RefundedAt,
			next.UpdatedAt,
		)
		if err != nil {
			return mapWriteError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return newError(ErrConflict, "booking was modified by another request")
		}

		result = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// visibleTo restricts rows of table to the bookings viewer may see.
func visibleTo(v Viewer, table string) exp.Expression {
	t := goqu.T(table)
	switch v.Role {
	case middleware.RoleAdmin:
		return nil
	case middleware.RoleLandlord:
		return t.Col("apartment_id").In(
			dialect.From("apartments").Select("id").Where(goqu.C("owner_id").Eq(v.UserID)),
		)
	default:
		return t.Col("tenant_id").Eq(v.UserID)
	}
}

func (r *repository) CompleteStale(ctx context.Context, viewer Viewer, today, now time.Time) ([]*Booking, error) {
	where := []exp.Expression{
		goqu.C("status").In(blockingStatusStrings()),
		goqu.C("end_date").Lt(today),
	}
	if vis := visibleTo(viewer, "bookings"); vis != nil {
		where = append(where, vis)
	}

	query, args, err := dialect.Update("bookings").
		Set(goqu.Record{"status": string(StatusCompleted), "updated_at": now}).
		Where(where...).
		Returning(goqu.L(bookingColumns)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build sweep query: %w", err)
	}

	var out []*Booking
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func listConditions(f *ListFilter) []exp.Expression {
	var where []exp.Expression
	if vis := visibleTo(f.Viewer, "b"); vis != nil {
		where = append(where, vis)
	}
	if f.Status != nil {
		where = append(where, goqu.I("b.status").Eq(string(*f.Status)))
	}

	switch f.Scope {
	case ScopeActive:
		where = append(where,
			goqu.I("b.status").In(blockingStatusStrings()),
			goqu.I("b.end_date").Gte(f.Today),
		)
	case ScopePast:
		where = append(where, goqu.I("b.end_date").Lt(f.Today))
	case ScopeFuture:
		where = append(where, goqu.I("b.start_date").Gt(f.Today))
	case ScopeAll:
	}
	return where
}

func (r *repository) List(ctx context.Context, filter *ListFilter, pagination *Pagination) ([]*Booking, int, error) {
	base := dialect.From(goqu.T("bookings").As("b")).Where(listConditions(filter)...)

	countQuery, countArgs, err := base.Select(goqu.COUNT("*")).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	order, ok := Orderings[filter.Ordering]
	if !ok {
		order = Orderings[DefaultOrdering]
	}
	offset := (pagination.Page - 1) * pagination.Limit

	listQuery, listArgs, err := base.Select(qualifiedColumns()...).
		Order(order, goqu.I("b.id").Asc()).
		Limit(uint(pagination.Limit)).
		Offset(uint(offset)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	var out []*Booking
	if err := r.db.SelectContext(ctx, &out, listQuery, listArgs...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repository) CreateDocument(ctx context.Context, d *Document) error {
	query := `
		INSERT INTO booking_documents (id, booking_id, uploaded_by, document_type, file_key, file_url, content_type, uploaded_at)
		VALUES (:id, :booking_id, :uploaded_by, :document_type, :file_key, :file_url, :content_type, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *repository) ListDocuments(ctx context.Context, bookingID uuid.UUID) ([]*Document, error) {
	query := `
		SELECT id, booking_id, uploaded_by, document_type, file_key, file_url, content_type, uploaded_at
		FROM booking_documents
		WHERE booking_id = $1
		ORDER BY uploaded_at`
	var out []*Document
	if err := r.db.SelectContext(ctx, &out, query, bookingID); err != nil {
		return nil, err
	}
	return out, nil
}

// mapWriteError translates constraint violations into booking errors.
func mapWriteError(err error) error {
	pqErr, ok := database.PQError(err)
	if !ok {
		return err
	}

	switch pqErr.Code {
	case database.CodeExclusionViolation:
		return ErrUnavailable.withCause(err)
	case database.CodeNumericOutOfRange:
		return ErrPriceTooHigh.withCause(err)
	case database.CodeForeignKeyViolation:
		switch pqErr.Constraint {
		case "bookings_apartment_id_fkey":
			return ErrApartmentNotFound.withCause(err)
		case "booking_documents_booking_id_fkey":
			return ErrBookingNotFound.withCause(err)
		}
		return newError(ErrValidation, "referenced record does not exist").withCause(err)
	case database.CodeCheckViolation:
		switch pqErr.Constraint {
		case "bookings_dates_check":
			return ErrCheckoutNotAfter.withCause(err)
		case "bookings_guest_count_check":
			return ErrGuestCountTooLow.withCause(err)
		}
		return newError(ErrValidation, fmt.Sprintf("booking violates %s", pqErr.Constraint)).withCause(err)
	}
	return err
}
