package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/appraise/internal/db"
	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/repository"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openTestDB(t, ":memory:")
}

// NewFileTestDB creates a migrated SQLite database file under t.TempDir().
// Unlike NewTestDB it has a real connection pool, so concurrent writers
// contend for the database lock the way they do in production.
func NewFileTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), "appraise.db"))
}

func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// SeedAppraisal builds an appraisal from opts and stores it in repo.
func SeedAppraisal(t *testing.T, repo repository.AppraisalRepo, opts ...AppraisalOption) *domain.Appraisal {
	t.Helper()
	a := NewTestAppraisal(opts...)
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("failed to seed appraisal: %v", err)
	}
	return a
}
