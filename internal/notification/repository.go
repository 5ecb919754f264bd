package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxRepository persists intents into the notification_intents outbox table.
type PgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) *PgxRepository {
	return &PgxRepository{pool: pool}
}

func (r *PgxRepository) Notify(ctx context.Context, intent Intent) error {
	payload, err := json.Marshal(intent.Payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload failed: %w", err)
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.notification_intents").
		Columns("kind", "recipient_id", "payload").
		Values(intent.Kind, intent.RecipientID, payload).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert notification query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert notification failed: %w", err)
	}
	return nil
}

// ListUndelivered returns the oldest intents the mail layer has not yet picked up.
func (r *PgxRepository) ListUndelivered(ctx context.Context, limit int) ([]Intent, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "kind", "recipient_id", "payload", "created_at").
		From("public.notification_intents").
		Where(squirrel.Eq{"delivered_at": nil}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list notifications query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications failed: %w", err)
	}
	defer rows.Close()

	var out []Intent
	for rows.Next() {
		var in Intent
		var raw []byte
		if err := rows.Scan(&in.ID, &in.Kind, &in.RecipientID, &raw, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification failed: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &in.Payload); err != nil {
				return nil, fmt.Errorf("decode notification payload failed: %w", err)
			}
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// MarkDelivered stamps the given intents as handed off and returns how many
// changed. Intents already delivered are left alone.
func (r *PgxRepository) MarkDelivered(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.notification_intents").
		Set("delivered_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": ids, "delivered_at": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build mark delivered query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark notifications delivered failed: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

// ReminderSent reports whether a booking_reminder for bookingID at the given
// lead time was queued at or after since.
func (r *PgxRepository) ReminderSent(ctx context.Context, bookingID string, beforeHours int, since time.Time) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("1").
		From("public.notification_intents").
		Where(squirrel.Eq{"kind": KindBookingReminder}).
		Where("payload->>'booking_id' = ?", bookingID).
		Where("(payload->>'before_hours')::int = ?", beforeHours).
		Where(squirrel.GtOrEq{"created_at": since}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build reminder ledger query failed: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("query reminder ledger failed: %w", err)
	}
	return exists, nil
}
