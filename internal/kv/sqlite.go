package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/kurozora/internal/dbx"
)

// SQLiteStore is a Store persisted in the kv table. Every row belongs to the
// store whose name it carries, so many stores can share one database.
type SQLiteStore struct {
	db   dbx.DBTX
	name string
}

// NewSQLiteStore returns the store called name inside db.
func NewSQLiteStore(db dbx.DBTX, name string) *SQLiteStore {
	return &SQLiteStore{db: db, name: name}
}

// Name returns the store name.
func (r *SQLiteStore) Name() string {
	return r.name
}

func (r *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE store = ? AND key = ?`, r.name, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s[%s]: %w", r.name, key, err)
	}
	return value, true, nil
}

func (r *SQLiteStore) Set(ctx context.Context, key string, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv (store, key, value) VALUES (?, ?, ?)
		ON CONFLICT(store, key) DO UPDATE SET value = excluded.value
	`, r.name, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s[%s]: %w", r.name, key, err)
	}
	return nil
}

func (r *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE store = ? AND key = ?`, r.name, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", r.name, key, err)
	}
	return nil
}

func (r *SQLiteStore) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE store = ?`, r.name)
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", r.name, err)
	}
	return nil
}

func (r *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM kv WHERE store = ? ORDER BY key`, r.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.name, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.name, err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", r.name, err)
	}

	return keys, nil
}

// SQLiteBackend serves the root store and, when dedicated is set, one named
// store per caller-chosen name, all from the same database.
type SQLiteBackend struct {
	db        *sql.DB // nil when bound to a transaction
	conn      dbx.DBTX
	dedicated bool
}

// NewSQLiteBackend wraps an already migrated database. With dedicated false
// the backend behaves as a single shared store and Named always fails.
func NewSQLiteBackend(db *sql.DB, dedicated bool) *SQLiteBackend {
	return &SQLiteBackend{db: db, conn: db, dedicated: dedicated}
}

func (b *SQLiteBackend) Root() Store {
	return NewSQLiteStore(b.conn, RootStoreName)
}

func (b *SQLiteBackend) Named(name string) (Store, bool) {
	if !b.dedicated {
		return nil, false
	}
	return NewSQLiteStore(b.conn, name), true
}

// StoreNames lists every store that holds at least one key, root included.
func (b *SQLiteBackend) StoreNames(ctx context.Context) ([]string, error) {
	rows, err := b.conn.QueryContext(ctx, `SELECT DISTINCT store FROM kv ORDER BY store`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan store name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stores: %w", err)
	}

	return names, nil
}

// Atomically runs fn inside a single SQL transaction. Nested calls reuse the
// outer transaction.
func (b *SQLiteBackend) Atomically(ctx context.Context, fn func(ctx context.Context, b Backend) error) error {
	if b.db == nil {
		return fn(ctx, b)
	}
	return dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLiteBackend{conn: tx, dedicated: b.dedicated})
	})
}

// Close closes the underlying database. It is a no-op for transaction-bound
// backends.
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
