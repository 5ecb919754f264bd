package series

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/timeutil"
)

type Repository interface {
	Create(ctx context.Context, s *Series) error
	GetByID(ctx context.Context, id string) (*Series, error)
	List(ctx context.Context, filter Filter) ([]*Series, int, error)
	// ListActive returns every active series, oldest first.
	ListActive(ctx context.Context) ([]*Series, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var seriesColumns = []string{
	"id", "user_id", "resource_id", "kind", "repeat_interval", "days_of_week", "day_of_month",
	"pattern", "start_date", "end_date", "max_occurrences", "start_time", "end_time",
	"purpose", "notes", "requires_checkin", "auto_cancel_minutes", "is_active",
	"created_at", "updated_at",
}

func scanSeries(row pgx.Row, extra ...any) (*Series, error) {
	var s Series
	var startClock, endClock string
	dest := []any{
		&s.ID, &s.UserID, &s.ResourceID, &s.Kind, &s.Interval, &s.DaysOfWeek, &s.DayOfMonth,
		&s.Pattern, &s.StartDate, &s.EndDate, &s.MaxOccurrences, &startClock, &endClock,
		&s.Purpose, &s.Notes, &s.RequiresCheckin, &s.AutoCancelMinutes, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if s.StartTime, err = timeutil.ParseClock(startClock); err != nil {
		return nil, fmt.Errorf("series %s start time: %w", s.ID, err)
	}
	if s.EndTime, err = timeutil.ParseClock(endClock); err != nil {
		return nil, fmt.Errorf("series %s end time: %w", s.ID, err)
	}
	return &s, nil
}

func (r *pgxRepository) Create(ctx context.Context, s *Series) error {
	query, args, err := psql.Insert("public.recurring_series").
		Columns(
			"user_id", "resource_id", "kind", "repeat_interval", "days_of_week", "day_of_month",
			"pattern", "start_date", "end_date", "max_occurrences", "start_time", "end_time",
			"purpose", "notes", "requires_checkin", "auto_cancel_minutes", "is_active",
		).
		Values(
			s.UserID, s.ResourceID, s.Kind, s.Interval, s.DaysOfWeek, s.DayOfMonth,
			s.Pattern, s.StartDate, s.EndDate, s.MaxOccurrences, s.StartTime.String(), s.EndTime.String(),
			s.Purpose, s.Notes, s.RequiresCheckin, s.AutoCancelMinutes, s.IsActive,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create series query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("create series failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Series, error) {
	query, args, err := psql.Select(seriesColumns...).
		From("public.recurring_series").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get series query failed: %w", err)
	}

	s, err := scanSeries(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get series failed: %w", err)
	}
	return s, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Series, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query := psql.Select(append(seriesColumns, "count(*) OVER() AS total_count")...).
		From("public.recurring_series")
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"resource_id": filter.ResourceID})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}

	sql, args, err := query.OrderBy("created_at DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list series query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list series failed: %w", err)
	}
	defer rows.Close()

	var out []*Series
	var total int
	for rows.Next() {
		s, err := scanSeries(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan series failed: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *pgxRepository) ListActive(ctx context.Context) ([]*Series, error) {
	query, args, err := psql.Select(seriesColumns...).
		From("public.recurring_series").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active series query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active series failed: %w", err)
	}
	defer rows.Close()

	var out []*Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series failed: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgxRepository) SetActive(ctx context.Context, id string, active bool) error {
	query, args, err := psql.Update("public.recurring_series").
		Set("is_active", active).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update series query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update series failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
