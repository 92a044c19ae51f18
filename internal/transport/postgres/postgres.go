// Package postgres is an opaque snapshot-transport example for the
// reference host: it loads and saves an already-encoded snapshot as a
// single JSONB blob keyed by namespace. Persistence is a transport
// concern external to the core (spec.md §1 Non-goals); nothing in this
// package knows about rules, rollout, or evaluation — it only shuttles
// bytes that internal/codec already knows how to produce and consume.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amichne/konditional/internal/codec"
	"github.com/amichne/konditional/internal/konfig"
	"github.com/amichne/konditional/internal/registry"
)

// NewPool creates a connection pool with the same production-ready
// settings internal/db.NewPool used: bounded max connections, one warm
// idle connection, and a periodic health check. It does not validate
// connectivity; callers that need that should Ping the pool themselves.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("transport/postgres: invalid DSN: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("transport/postgres: failed to create pool: %w", err)
	}
	return pool, nil
}

// Transport loads and saves whole-namespace snapshots against a single
// table, one row per namespace, the payload stored as JSONB in
// codec's canonical wire format.
type Transport struct {
	pool *pgxpool.Pool
}

// NewTransport wraps an existing pool. The Transport takes ownership of
// the pool: Close closes it.
func NewTransport(pool *pgxpool.Pool) *Transport {
	return &Transport{pool: pool}
}

// EnsureSchema creates the snapshot table if it does not already exist.
// It is safe to call on every boot.
func (t *Transport) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS konditional_snapshots (
	namespace_id TEXT PRIMARY KEY,
	payload      JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
)`
	if _, err := t.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("transport/postgres: ensure schema: %w", err)
	}
	return nil
}

// Load fetches the stored snapshot for ns and decodes it against ns's
// trusted feature set. A namespace with no stored row yields an empty
// snapshot rather than an error, matching registry.New's initial state.
func (t *Transport) Load(ctx context.Context, ns *konfig.Namespace, opts codec.Options) (*registry.Snapshot, error) {
	var payload []byte
	row := t.pool.QueryRow(ctx, `SELECT payload FROM konditional_snapshots WHERE namespace_id = $1`, ns.ID())
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registry.NewSnapshot(ns.ID(), "", "postgres:empty", nil), nil
		}
		return nil, fmt.Errorf("transport/postgres: load %s: %w", ns.ID(), err)
	}

	snap, err := codec.Decode(payload, ns, opts)
	if err != nil {
		return nil, fmt.Errorf("transport/postgres: decode stored snapshot for %s: %w", ns.ID(), err)
	}
	return snap, nil
}

// Save encodes snap and upserts it as the current row for its namespace.
func (t *Transport) Save(ctx context.Context, snap *registry.Snapshot, ns *konfig.Namespace) error {
	payload, err := codec.Encode(snap, ns)
	if err != nil {
		return fmt.Errorf("transport/postgres: encode snapshot for %s: %w", ns.ID(), err)
	}

	const upsert = `
INSERT INTO konditional_snapshots (namespace_id, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (namespace_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := t.pool.Exec(ctx, upsert, ns.ID(), payload); err != nil {
		return fmt.Errorf("transport/postgres: save %s: %w", ns.ID(), err)
	}
	return nil
}

// Close closes the wrapped pool.
func (t *Transport) Close() {
	t.pool.Close()
}
