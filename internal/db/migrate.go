package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all SQLite schema migrations. Statements are idempotent and
// re-run on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillStatus(db); err != nil {
		return fmt.Errorf("backfilling appraisal status: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS appraisals (
		id TEXT PRIMARY KEY,
		template_type TEXT NOT NULL CHECK(template_type IN ('NAS','RPS','CUSTOM','AIC_FORM')),
		effective_date TEXT NOT NULL,
		completion_percentage INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'draft',
		property_id TEXT,
		property_type TEXT NOT NULL DEFAULT '',
		sections_json TEXT NOT NULL DEFAULT '{}',
		adjustments_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`ALTER TABLE appraisals ADD COLUMN effective_age_json TEXT`,

	`CREATE TABLE IF NOT EXISTS appraisal_saves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		appraisal_id TEXT NOT NULL REFERENCES appraisals(id) ON DELETE CASCADE,
		fields TEXT NOT NULL,
		saved_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_appraisals_status ON appraisals(status)`,
	`CREATE INDEX IF NOT EXISTS idx_appraisals_updated ON appraisals(updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_appraisal_saves_appraisal ON appraisal_saves(appraisal_id, saved_at)`,
}

// migrateBackfillStatus moves rows written before the status column was
// constrained to a known value onto draft.
func migrateBackfillStatus(db *sql.DB) error {
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `
		UPDATE appraisals SET status = 'draft'
		WHERE status NOT IN ('draft', 'in_progress', 'completed', 'archived')`)
	return err
}
