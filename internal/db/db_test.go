package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDB_PragmasOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	db, err := OpenDB(filepath.Join(t.TempDir(), "nested", "appraise.db"))
	require.NoError(t, err)
	defer db.Close()

	// Holding each conn forces the pool to open a new one.
	conns := make([]*sql.Conn, 3)
	for i := range conns {
		conns[i], err = db.Conn(ctx)
		require.NoError(t, err)
		defer conns[i].Close()
	}
	for i, conn := range conns {
		var timeout, fk int
		var mode string
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout))
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode))
		assert.Equal(t, 5000, timeout, "conn %d", i)
		assert.Equal(t, 1, fk, "conn %d", i)
		assert.Equal(t, "wal", mode, "conn %d", i)
	}
}

func TestOpenDB_ConcurrentWriteTransactions(t *testing.T) {
	ctx := context.Background()
	db, err := OpenDB(filepath.Join(t.TempDir(), "appraise.db"))
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = db.Exec(`INSERT INTO appraisals (id, template_type, effective_date, created_at, updated_at)
		VALUES ('a1', 'NAS', '2025-01-01', ?, ?)`, now, now)
	require.NoError(t, err)

	uow := NewUnitOfWork(db)
	columns := []string{"sections_json", "adjustments_json", "effective_age_json"}
	var wg sync.WaitGroup
	errs := make(chan error, len(columns)*50)
	for _, col := range columns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				errs <- uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
					_, err := tx.ExecContext(ctx, `UPDATE appraisals SET `+col+` = ?, updated_at = ? WHERE id = 'a1'`, `{}`, now)
					return err
				})
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
