// Package postgres implements kv.Store on a PostgreSQL table with a JSONB
// value column and an expires_at column enforced on read.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/savdolab/convoctx/pkg/log"
)

// PostgresStore implements the kv.Store interface using a PostgreSQL table.
type PostgresStore struct {
	db        *sqlx.DB
	tableName string
}

// NewPostgresStore creates a new PostgresStore with the given connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		db:        db,
		tableName: "conversation_memory",
	}
}

// WithTableName overrides the default table name.
func (p *PostgresStore) WithTableName(name string) *PostgresStore {
	p.tableName = name
	return p
}

// Initialize creates the backing table if it doesn't exist.
func (p *PostgresStore) Initialize(ctx context.Context) error {
	log.DebugContext(ctx, "Initializing PostgreSQL KV table", "table", p.tableName)

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			expires_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, p.tableName)

	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", p.tableName, err)
	}

	return nil
}

// Get implements kv.Store.
func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := fmt.Sprintf(`
		SELECT value FROM %s
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`, p.tableName)

	var value []byte
	err := p.db.QueryRowxContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get record: %w", err)
	}

	return value, true, nil
}

// Set implements kv.Store.
func (p *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = now()`, p.tableName)

	if _, err := p.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to set record: %w", err)
	}

	return nil
}

// Delete implements kv.Store.
func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, p.tableName)
	if _, err := p.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
