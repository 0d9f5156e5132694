package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKV stores slots as rows of session_slots. The namespace prefix lets
// several portals share one table.
type PostgresKV struct {
	pool      *pgxpool.Pool
	namespace string
}

func NewPostgresKV(pool *pgxpool.Pool, namespace string) *PostgresKV {
	return &PostgresKV{pool: pool, namespace: namespace}
}

func (r *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM session_slots WHERE namespace = $1 AND key = $2`,
		r.namespace, key).Scan(&value)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get session slot: %w", err)
	}
	return value, nil
}

func (r *PostgresKV) Set(ctx context.Context, key string, value string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_slots (namespace, key, value, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		r.namespace, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set session slot: %w", err)
	}
	return nil
}

func (r *PostgresKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := r.pool.Exec(ctx,
		`DELETE FROM session_slots WHERE namespace = $1 AND key = ANY($2)`,
		r.namespace, keys)
	if err != nil {
		return fmt.Errorf("delete session slots: %w", err)
	}
	return nil
}
