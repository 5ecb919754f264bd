package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, filter Filter) ([]*Entry, int, error)
	// ListWaiting returns waiting entries starting after now, oldest first.
	ListWaiting(ctx context.Context, now time.Time) ([]*Entry, error)
	// Transition applies t only while the entry is still in t.From. It
	// reports false, without error, when another writer got there first.
	Transition(ctx context.Context, id string, t Transition) (bool, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var entryColumns = []string{
	"id", "user_id", "resource_id", "start_time", "end_time", "purpose", "auto_book",
	"status", "booking_id", "notified_at", "created_at", "updated_at",
}

func scanEntry(row pgx.Row, extra ...any) (*Entry, error) {
	var e Entry
	dest := []any{
		&e.ID, &e.UserID, &e.ResourceID, &e.StartTime, &e.EndTime, &e.Purpose, &e.AutoBook,
		&e.Status, &e.BookingID, &e.NotifiedAt, &e.CreatedAt, &e.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *pgxRepository) Create(ctx context.Context, e *Entry) error {
	query, args, err := psql.Insert("public.waitlist_entries").
		Columns("user_id", "resource_id", "start_time", "end_time", "purpose", "auto_book", "status").
		Values(e.UserID, e.ResourceID, e.StartTime, e.EndTime, e.Purpose, e.AutoBook, e.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create waitlist entry query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return fmt.Errorf("create waitlist entry failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Entry, error) {
	query, args, err := psql.Select(entryColumns...).
		From("public.waitlist_entries").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get waitlist entry query failed: %w", err)
	}

	e, err := scanEntry(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get waitlist entry failed: %w", err)
	}
	return e, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Entry, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query := psql.Select(append(entryColumns, "count(*) OVER() AS total_count")...).
		From("public.waitlist_entries")
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"resource_id": filter.ResourceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	sql, args, err := query.OrderBy("created_at DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list waitlist query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list waitlist failed: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	var total int
	for rows.Next() {
		e, err := scanEntry(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan waitlist entry failed: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *pgxRepository) ListWaiting(ctx context.Context, now time.Time) ([]*Entry, error) {
	query, args, err := psql.Select(entryColumns...).
		From("public.waitlist_entries").
		Where(squirrel.Eq{"status": StatusWaiting}).
		Where(squirrel.Gt{"start_time": now}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list waiting entries query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list waiting entries failed: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist entry failed: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *pgxRepository) Transition(ctx context.Context, id string, t Transition) (bool, error) {
	update := psql.Update("public.waitlist_entries").
		Set("status", t.To).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": t.From})
	if t.BookingID != nil {
		update = update.Set("booking_id", *t.BookingID)
	}
	if t.NotifiedAt != nil {
		update = update.Set("notified_at", *t.NotifiedAt)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return false, fmt.Errorf("build waitlist transition query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("waitlist transition failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
