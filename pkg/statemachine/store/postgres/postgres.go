// Package postgres provides a clustered-replica Backend for
// pkg/statemachine backed by a flat key/value table, accessed directly
// through pgx rather than an ORM: the access pattern is a single table
// keyed by string, not a relational schema.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS coord_state (
	key   TEXT PRIMARY KEY,
	value BYTEA NOT NULL
)`

// Backend implements statemachine.Backend over a Postgres table.
type Backend struct {
	pool *pgxpool.Pool
}

// Open connects to connString and ensures the backing table exists.
func Open(ctx context.Context, connString string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to state machine postgres store: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure coord_state table: %w", err)
	}
	return &Backend{pool: pool}, nil
}

// Close releases the connection pool.
func (b *Backend) Close() {
	b.pool.Close()
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.pool.QueryRow(ctx, `SELECT value FROM coord_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO coord_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if _, err := b.pool.Exec(ctx, `DELETE FROM coord_state WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (b *Backend) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	var result int64
	err := b.pool.QueryRow(ctx, `
		INSERT INTO coord_state (key, value) VALUES ($1, int8send($2::bigint))
		ON CONFLICT (key) DO UPDATE
		SET value = int8send(int8recv(coord_state.value) + $2::bigint)
		RETURNING int8recv(value)`, key, delta).Scan(&result)
	if err != nil {
		return 0, fmt.Errorf("increment %q: %w", key, err)
	}
	return result, nil
}

func (b *Backend) Snapshot(ctx context.Context) (map[string][]byte, error) {
	rows, err := b.pool.Query(ctx, `SELECT key, value FROM coord_state`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}
