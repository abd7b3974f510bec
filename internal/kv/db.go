package kv

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/kurozora/internal/kv/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// OpenDatabase opens (creating if needed) the SQLite database at dsn and
// brings its schema up to date.
//
// The pool is limited to one connection: SQLite serialises writers anyway, and
// a single connection keeps ":memory:" databases coherent.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLiteBackend is OpenDatabase followed by NewSQLiteBackend.
func OpenSQLiteBackend(ctx context.Context, dsn string, dedicated bool) (*SQLiteBackend, error) {
	db, err := OpenDatabase(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLiteBackend(db, dedicated), nil
}
