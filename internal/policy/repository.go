package policy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxRepository stores policy values as key -> JSONB rows in booking_settings.
type PgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) *PgxRepository {
	return &PgxRepository{pool: pool}
}

// Apply overlays every stored key onto cfg. Unknown keys are ignored.
func (r *PgxRepository) Apply(ctx context.Context, cfg *Configuration) error {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM public.booking_settings`)
	if err != nil {
		return fmt.Errorf("load booking settings failed: %w", err)
	}
	defer rows.Close()

	values := map[string]json.RawMessage{}
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan booking setting failed: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate booking settings failed: %w", err)
	}
	if len(values) == 0 {
		return nil
	}

	merged, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("merge booking settings failed: %w", err)
	}
	if err := json.Unmarshal(merged, cfg); err != nil {
		return fmt.Errorf("decode booking settings failed: %w", err)
	}
	return nil
}

// Save validates cfg and upserts every key in one transaction.
func (r *PgxRepository) Save(ctx context.Context, cfg Configuration) error {
	if err := cfg.Check(); err != nil {
		return err
	}

	encoded, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode policy failed: %w", err)
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &values); err != nil {
		return fmt.Errorf("split policy keys failed: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for key, value := range values {
			batch.Queue(`
				INSERT INTO public.booking_settings (key, value, updated_at)
				VALUES ($1, $2, now())
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
			`, key, []byte(value))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save booking settings failed: %w", err)
		}
		return nil
	})
}
