package db

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_CreatesTablesAndIndexes(t *testing.T) {
	db := openTestDB(t)
	for _, table := range []string{"appraisals", "appraisal_saves"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
	for _, idx := range []string{"idx_appraisals_status", "idx_appraisals_updated", "idx_appraisal_saves_appraisal"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_AddsEffectiveAgeColumn(t *testing.T) {
	db := openTestDB(t)
	rows, err := db.Query(`PRAGMA table_info(appraisals)`)
	require.NoError(t, err)
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		require.NoError(t, rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk))
		if name == "effective_age_json" {
			found = true
		}
	}
	require.NoError(t, rows.Err())
	assert.True(t, found)
}

func TestMigrate_BackfillsUnknownStatus(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(`INSERT INTO appraisals (id, template_type, effective_date, status, created_at, updated_at)
		VALUES ('x', 'RPS', '2025-01-01', 'legacy', ?, ?)`, now, now)
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM appraisals WHERE id = 'x'`).Scan(&status))
	assert.Equal(t, "draft", status)
}

func TestMigrate_RejectsUnknownTemplate(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(`INSERT INTO appraisals (id, template_type, effective_date, created_at, updated_at)
		VALUES ('y', 'BOGUS', '2025-01-01', ?, ?)`, now, now)
	require.Error(t, err)
}

func TestMigratePostgres(t *testing.T) {
	url := os.Getenv("APPRAISE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("APPRAISE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := OpenPostgres(ctx, url)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigratePostgres(ctx, db))
	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.GreaterOrEqual(t, n, len(postgresMigrations))
}
