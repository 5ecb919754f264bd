package equipment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context) ([]*Item, error)

	// Reserve atomically debits qty if available; false means insufficient stock.
	Reserve(ctx context.Context, itemID string, qty int) (bool, error)
	// Release credits qty, clamped at the item's total quantity.
	Release(ctx context.Context, itemID string, qty int) error

	CreateLine(ctx context.Context, line *Line) error
	GetLine(ctx context.Context, id string) (*Line, error)
	ListLines(ctx context.Context, bookingID string) ([]*Line, error)
	UpdateLine(ctx context.Context, line *Line) error
	DeleteLine(ctx context.Context, id string) error

	// WithinTx runs fn against a repository bound to one transaction.
	WithinTx(ctx context.Context, fn func(Repository) error) error
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

func (r *pgxRepository) WithinTx(ctx context.Context, fn func(Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgxRepository{pool: r.pool, db: tx, inTx: true})
	})
}

func (r *pgxRepository) CreateItem(ctx context.Context, item *Item) error {
	query, args, err := psql.Insert("public.equipment").
		Columns("name", "quantity", "available_quantity").
		Values(item.Name, item.Quantity, item.AvailableQuantity).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create equipment query failed: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&item.ID, &item.CreatedAt); err != nil {
		return fmt.Errorf("create equipment failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetItem(ctx context.Context, id string) (*Item, error) {
	query, args, err := psql.Select("id", "name", "quantity", "available_quantity", "created_at").
		From("public.equipment").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get equipment query failed: %w", err)
	}

	var it Item
	if err := r.db.QueryRow(ctx, query, args...).
		Scan(&it.ID, &it.Name, &it.Quantity, &it.AvailableQuantity, &it.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get equipment failed: %w", err)
	}
	return &it, nil
}

func (r *pgxRepository) ListItems(ctx context.Context) ([]*Item, error) {
	query, args, err := psql.Select("id", "name", "quantity", "available_quantity", "created_at").
		From("public.equipment").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list equipment query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list equipment failed: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Quantity, &it.AvailableQuantity, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan equipment failed: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *pgxRepository) Reserve(ctx context.Context, itemID string, qty int) (bool, error) {
	query, args, err := psql.Update("public.equipment").
		Set("available_quantity", squirrel.Expr("available_quantity - ?", qty)).
		Where(squirrel.Eq{"id": itemID}).
		Where(squirrel.GtOrEq{"available_quantity": qty}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build reserve equipment query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.CheckViolation {
			return false, nil
		}
		return false, fmt.Errorf("reserve equipment failed: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return true, nil
	}

	// Distinguish a missing item from insufficient stock.
	if _, err := r.GetItem(ctx, itemID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *pgxRepository) Release(ctx context.Context, itemID string, qty int) error {
	query, args, err := psql.Update("public.equipment").
		Set("available_quantity", squirrel.Expr("LEAST(quantity, available_quantity + ?)", qty)).
		Where(squirrel.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build release equipment query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("release equipment failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

var lineColumns = []string{"id", "booking_id", "equipment_id", "quantity", "status", "released_at", "created_at", "updated_at"}

func scanLine(row pgx.Row) (*Line, error) {
	var l Line
	if err := row.Scan(&l.ID, &l.BookingID, &l.ItemID, &l.Quantity, &l.Status, &l.ReleasedAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *pgxRepository) CreateLine(ctx context.Context, line *Line) error {
	query, args, err := psql.Insert("public.booking_equipment").
		Columns("booking_id", "equipment_id", "quantity", "status").
		Values(line.BookingID, line.ItemID, line.Quantity, line.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create equipment line query failed: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyAttached
		}
		return fmt.Errorf("create equipment line failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetLine(ctx context.Context, id string) (*Line, error) {
	query, args, err := psql.Select(lineColumns...).
		From("public.booking_equipment").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get equipment line query failed: %w", err)
	}

	l, err := scanLine(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("get equipment line failed: %w", err)
	}
	return l, nil
}

func (r *pgxRepository) ListLines(ctx context.Context, bookingID string) ([]*Line, error) {
	query, args, err := psql.Select(lineColumns...).
		From("public.booking_equipment").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list equipment lines query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list equipment lines failed: %w", err)
	}
	defer rows.Close()

	var lines []*Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan equipment line failed: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *pgxRepository) UpdateLine(ctx context.Context, line *Line) error {
	query, args, err := psql.Update("public.booking_equipment").
		Set("quantity", line.Quantity).
		Set("status", line.Status).
		Set("released_at", line.ReleasedAt).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": line.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update equipment line query failed: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&line.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLineNotFound
		}
		return fmt.Errorf("update equipment line failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) DeleteLine(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.booking_equipment").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete equipment line query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete equipment line failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}
