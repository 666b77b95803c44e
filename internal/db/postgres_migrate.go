package db

import (
	"context"
	"database/sql"
	"fmt"
)

type pgMigration struct {
	version string
	sql     string
}

var postgresMigrations = []pgMigration{
	{"0001_appraisals", `
		CREATE TABLE IF NOT EXISTS appraisals (
			id TEXT PRIMARY KEY,
			template_type TEXT NOT NULL CHECK (template_type IN ('NAS','RPS','CUSTOM','AIC_FORM')),
			effective_date DATE NOT NULL,
			completion_percentage INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'draft',
			property_id TEXT,
			property_type TEXT NOT NULL DEFAULT '',
			sections JSONB NOT NULL DEFAULT '{}'::jsonb,
			adjustments JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"0002_effective_age", `ALTER TABLE appraisals ADD COLUMN IF NOT EXISTS effective_age JSONB`},
	{"0003_status_index", `CREATE INDEX IF NOT EXISTS idx_appraisals_status ON appraisals(status)`},
}

// MigratePostgres applies every Postgres migration not yet recorded in
// schema_migrations, each in its own transaction.
func MigratePostgres(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	uow := NewUnitOfWork(db)
	for _, m := range postgresMigrations {
		var exists bool
		if err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", m.version, err)
		}
		if exists {
			continue
		}
		err := uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
			if _, err := tx.ExecContext(ctx, m.sql); err != nil {
				return fmt.Errorf("execute migration %s: %w", m.version, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES($1)`, m.version); err != nil {
				return fmt.Errorf("record migration %s: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
