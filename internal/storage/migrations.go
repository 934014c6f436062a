package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Table definitions per dialect. users.email is indexed but not unique:
// email uniqueness is enforced by the user service, not the store.
var tableDDL = map[dialect.Name][]string{
	dialect.PG: {
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_events (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			action TEXT NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	},
	dialect.SQLite: {
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_events (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			action TEXT NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	},
}

// Indexes share syntax across the supported dialects
var Indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_users_email ON users (email)",
	"CREATE INDEX IF NOT EXISTS idx_user_events_user_id ON user_events (user_id, created_at)",
}

// CreateTables creates the users and user_events tables
func CreateTables(ctx context.Context, db *bun.DB) error {
	statements, ok := tableDDL[db.Dialect().Name()]
	if !ok {
		return fmt.Errorf("unsupported dialect: %s", DialectName(db))
	}

	for _, ddl := range statements {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table with SQL %q: %w", ddl, err)
		}
	}
	return nil
}

// CreateIndexes creates all necessary indexes
func CreateIndexes(ctx context.Context, db *bun.DB) error {
	for _, indexSQL := range Indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index with SQL %q: %w", indexSQL, err)
		}
	}
	return nil
}

// Migrate brings the schema up to date. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *bun.DB) error {
	if err := CreateTables(ctx, db); err != nil {
		return err
	}
	return CreateIndexes(ctx, db)
}
