package audit

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxRepository stores entries in the audit_logs table.
type PgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) *PgxRepository {
	return &PgxRepository{pool: pool}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PgxRepository) Record(ctx context.Context, e Entry) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.audit_logs").
		Columns("action", "entity_type", "entity_id", "actor_id", "before", "after", "message").
		Values(e.Action, e.EntityType, e.EntityID, nullable(e.ActorID), []byte(e.Before), []byte(e.After), e.Message).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry failed: %w", err)
	}
	return nil
}

// ListForEntity returns the entity's history, newest first.
func (r *PgxRepository) ListForEntity(ctx context.Context, entityType, entityID string) ([]Entry, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"action", "entity_type", "entity_id", "COALESCE(actor_id::text, '')",
		"before", "after", "message", "created_at",
	).
		From("public.audit_logs").
		Where(squirrel.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list audit query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries failed: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var before, after []byte
		if err := rows.Scan(&e.Action, &e.EntityType, &e.EntityID, &e.ActorID, &before, &after, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry failed: %w", err)
		}
		e.Before, e.After = before, after
		out = append(out, e)
	}
	return out, rows.Err()
}
