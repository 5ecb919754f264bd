package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// Update persists b if its Version still matches, then bumps Version.
	// A stale Version yields ErrConcurrentUpdate.
	Update(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id string) error

	// HasOverlap checks if there is any active booking for the resource in the given time range.
	// excludeBookingID is used during reschedules to ignore the booking itself.
	HasOverlap(ctx context.Context, resourceID string, start, end time.Time, excludeBookingID string) (bool, error)
	// CountUserActiveStartingBetween counts the user's active bookings with start in [from, to).
	CountUserActiveStartingBetween(ctx context.Context, userID string, from, to time.Time, excludeBookingID string) (int, error)
	// CountUserActiveOverlapping counts the user's active bookings overlapping [start, end).
	CountUserActiveOverlapping(ctx context.Context, userID string, start, end time.Time, excludeBookingID string) (int, error)

	ListActiveForResource(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error)
	ListAutoCancelDue(ctx context.Context, now time.Time) ([]*Booking, error)
	ListApprovedStartingBetween(ctx context.Context, from, to time.Time) ([]*Booking, error)
	ListForSeries(ctx context.Context, seriesID string) ([]*Booking, error)

	// WithinResourceLock runs fn while holding an exclusive lock on the
	// resource, so check-then-create for that resource is atomic.
	WithinResourceLock(ctx context.Context, resourceID string, fn func(Repository) error) error
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxRepository struct {
	pool *pgxpool.Pool
	db   dbtx
	inTx bool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool, db: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"b.id", "b.resource_id", "b.user_id", "b.series_id", "b.start_time", "b.end_time",
	"b.purpose", "b.notes", "b.status", "b.requires_checkin", "b.auto_cancel_minutes",
	"b.checked_in_at", "b.auto_cancelled_at", "b.approval_reason", "b.rejection_reason",
	"b.cancellation_reason", "b.version", "b.created_at", "b.updated_at",
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	dest := append([]any{
		&b.ID, &b.ResourceID, &b.UserID, &b.SeriesID, &b.StartTime, &b.EndTime,
		&b.Purpose, &b.Notes, &b.Status, &b.RequiresCheckin, &b.AutoCancelMinutes,
		&b.CheckedInAt, &b.AutoCancelledAt, &b.ApprovalReason, &b.RejectionReason,
		&b.CancellationReason, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &b, nil
}

func activeStatuses() squirrel.Eq {
	return squirrel.Eq{"b.status": []string{string(StatusPending), string(StatusApproved)}}
}

func (r *pgxRepository) WithinResourceLock(ctx context.Context, resourceID string, fn func(Repository) error) error {
	lock := func(db dbtx) error {
		if _, err := db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, resourceID); err != nil {
			return fmt.Errorf("lock resource failed: %w", err)
		}
		return nil
	}

	if r.inTx {
		if err := lock(r.db); err != nil {
			return err
		}
		return fn(r)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lock(tx); err != nil {
			return err
		}
		return fn(&pgxRepository{pool: r.pool, db: tx, inTx: true})
	})
}

func mapWriteError(err error) error {
	var e *pgconn.PgError
	if errors.As(err, &e) && e.Code == pgerrcode.ExclusionViolation {
		return ErrTimeConflict
	}
	return err
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"resource_id", "user_id", "series_id", "start_time", "end_time", "purpose", "notes",
			"status", "requires_checkin", "auto_cancel_minutes", "approval_reason",
		).
		Values(
			b.ResourceID, b.UserID, b.SeriesID, b.StartTime, b.EndTime, b.Purpose, b.Notes,
			b.Status, b.RequiresCheckin, b.AutoCancelMinutes, b.ApprovalReason,
		).
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

var sortableColumns = map[string]string{
	"start_time": "b.start_time",
	"end_time":   "b.end_time",
	"created_at": "b.created_at",
	"status":     "b.status",
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := psql.Select(append(bookingColumns, "count(*) OVER() as total_count")...).
		From("public.bookings b")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"b.resource_id": filter.ResourceID})
	}
	if filter.SeriesID != "" {
		query = query.Where(squirrel.Eq{"b.series_id": filter.SeriesID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	// Date range filtering (intersection logic)
	if filter.From != nil {
		query = query.Where(squirrel.Gt{"b.end_time": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"b.start_time": *filter.To})
	}

	// Sorting
	orderBy, ok := sortableColumns[filter.SortBy]
	if !ok {
		orderBy = "b.start_time"
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	query, args, err := psql.Update("public.bookings").
		Set("resource_id", b.ResourceID).
		Set("start_time", b.StartTime).
		Set("end_time", b.EndTime).
		Set("purpose", b.Purpose).
		Set("notes", b.Notes).
		Set("status", b.Status).
		Set("checked_in_at", b.CheckedInAt).
		Set("auto_cancelled_at", b.AutoCancelledAt).
		Set("approval_reason", b.ApprovalReason).
		Set("rejection_reason", b.RejectionReason).
		Set("cancellation_reason", b.CancellationReason).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID, "version": b.Version}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&b.Version, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, b.ID); getErr != nil {
				return getErr
			}
			return ErrConcurrentUpdate
		}
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) HasOverlap(ctx context.Context, resourceID string, start, end time.Time, excludeBookingID string) (bool, error) {
	// Half-open overlap: ExistingStart < NewEnd AND ExistingEnd > NewStart.
	subQuery := psql.Select("1").
		From("public.bookings b").
		Where(squirrel.Eq{"b.resource_id": resourceID}).
		Where(activeStatuses()).
		Where(squirrel.Lt{"b.start_time": end}).
		Where(squirrel.Gt{"b.end_time": start})

	if excludeBookingID != "" {
		subQuery = subQuery.Where(squirrel.NotEq{"b.id": excludeBookingID})
	}

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check overlap query failed: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) count(ctx context.Context, query squirrel.SelectBuilder, excludeBookingID string) (int, error) {
	if excludeBookingID != "" {
		query = query.Where(squirrel.NotEq{"b.id": excludeBookingID})
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count bookings query failed: %w", err)
	}
	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bookings failed: %w", err)
	}
	return n, nil
}

func (r *pgxRepository) CountUserActiveStartingBetween(ctx context.Context, userID string, from, to time.Time, excludeBookingID string) (int, error) {
	return r.count(ctx, psql.Select("count(*)").
		From("public.bookings b").
		Where(squirrel.Eq{"b.user_id": userID}).
		Where(activeStatuses()).
		Where(squirrel.GtOrEq{"b.start_time": from}).
		Where(squirrel.Lt{"b.start_time": to}), excludeBookingID)
}

func (r *pgxRepository) CountUserActiveOverlapping(ctx context.Context, userID string, start, end time.Time, excludeBookingID string) (int, error) {
	return r.count(ctx, psql.Select("count(*)").
		From("public.bookings b").
		Where(squirrel.Eq{"b.user_id": userID}).
		Where(activeStatuses()).
		Where(squirrel.Lt{"b.start_time": end}).
		Where(squirrel.Gt{"b.end_time": start}), excludeBookingID)
}

func (r *pgxRepository) listWhere(ctx context.Context, query squirrel.SelectBuilder) ([]*Booking, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *pgxRepository) ListActiveForResource(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error) {
	return r.listWhere(ctx, psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(squirrel.Eq{"b.resource_id": resourceID}).
		Where(activeStatuses()).
		Where(squirrel.Lt{"b.start_time": to}).
		Where(squirrel.Gt{"b.end_time": from}).
		OrderBy("b.start_time ASC"))
}

func (r *pgxRepository) ListAutoCancelDue(ctx context.Context, now time.Time) ([]*Booking, error) {
	return r.listWhere(ctx, psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(activeStatuses()).
		Where(squirrel.Eq{"b.requires_checkin": true}).
		Where(squirrel.Eq{"b.checked_in_at": nil}).
		Where(squirrel.Eq{"b.auto_cancelled_at": nil}).
		Where(squirrel.NotEq{"b.auto_cancel_minutes": nil}).
		Where(squirrel.Expr("b.start_time + make_interval(mins => b.auto_cancel_minutes) < ?", now)).
		OrderBy("b.start_time ASC"))
}

func (r *pgxRepository) ListApprovedStartingBetween(ctx context.Context, from, to time.Time) ([]*Booking, error) {
	return r.listWhere(ctx, psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(squirrel.Eq{"b.status": StatusApproved}).
		Where(squirrel.GtOrEq{"b.start_time": from}).
		Where(squirrel.Lt{"b.start_time": to}).
		OrderBy("b.start_time ASC"))
}

func (r *pgxRepository) ListForSeries(ctx context.Context, seriesID string) ([]*Booking, error) {
	return r.listWhere(ctx, psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(squirrel.Eq{"b.series_id": seriesID}).
		OrderBy("b.start_time ASC"))
}
