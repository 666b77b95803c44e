package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/appraise/internal/db"
	"github.com/alexanderramin/appraise/internal/domain"
)

// SaveEntry is one recorded partial update.
type SaveEntry struct {
	Fields  []string
	SavedAt time.Time
}

// SQLiteAppraisalRepo implements AppraisalRepo using a SQLite database.
// Each stream is stored in its own JSON column.
type SQLiteAppraisalRepo struct {
	db  *sql.DB
	uow db.UnitOfWork
}

var _ AppraisalRepo = (*SQLiteAppraisalRepo)(nil)

// NewSQLiteAppraisalRepo creates a new SQLiteAppraisalRepo.
func NewSQLiteAppraisalRepo(database *sql.DB) *SQLiteAppraisalRepo {
	return &SQLiteAppraisalRepo{db: database, uow: db.NewUnitOfWork(database)}
}

const appraisalColumns = `id, template_type, effective_date, completion_percentage, status, property_id, property_type,
	sections_json, adjustments_json, effective_age_json, created_at, updated_at`

func (r *SQLiteAppraisalRepo) Create(ctx context.Context, a *domain.Appraisal) error {
	sections := a.Sections
	if sections == nil {
		sections = domain.SectionMap{}
	}
	sectionsJSON, err := marshalJSON(sections)
	if err != nil {
		return fmt.Errorf("encoding sections: %w", err)
	}
	adjustments, err := nullableDocument(a.Adjustments)
	if err != nil {
		return fmt.Errorf("encoding adjustments: %w", err)
	}
	effectiveAge, err := nullableDocument(a.EffectiveAge)
	if err != nil {
		return fmt.Errorf("encoding effective age: %w", err)
	}

	query := `INSERT INTO appraisals (` + appraisalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		string(a.TemplateType),
		a.EffectiveDate.Format(dateLayout),
		a.CompletionPercentage,
		string(a.Status),
		nullableString(a.PropertyID),
		string(a.PropertyType),
		sectionsJSON,
		adjustments,
		effectiveAge,
		a.CreatedAt.UTC().Format(time.RFC3339),
		a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting appraisal: %w", err)
	}
	return nil
}

func (r *SQLiteAppraisalRepo) Read(ctx context.Context, id string) (*domain.Appraisal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+appraisalColumns+` FROM appraisals WHERE id = ?`, id)
	a, err := scanAppraisal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (r *SQLiteAppraisalRepo) List(ctx context.Context) ([]*domain.Appraisal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+appraisalColumns+` FROM appraisals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing appraisals: %w", err)
	}
	defer rows.Close()

	var out []*domain.Appraisal
	for rows.Next() {
		a, err := scanAppraisal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating appraisals: %w", err)
	}
	return out, nil
}

// Update writes only the columns the patch sets and records the save.
func (r *SQLiteAppraisalRepo) Update(ctx context.Context, id string, patch AppraisalPatch) error {
	assigns, err := sqlAssignments(patch, sqliteColumns)
	if err != nil {
		return err
	}
	sets := []string{"updated_at = ?"}
	args := []any{nowUTC().Format(time.RFC3339)}
	names := make([]string, 0, len(assigns))
	for _, a := range assigns {
		sets = append(sets, a.column+" = ?")
		args = append(args, a.value)
		names = append(names, a.field)
	}
	args = append(args, id)

	return r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		res, err := tx.ExecContext(ctx, `UPDATE appraisals SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return fmt.Errorf("updating appraisal: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating appraisal: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
		}
		if len(names) == 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO appraisal_saves (appraisal_id, fields, saved_at) VALUES (?, ?, ?)`,
			id, strings.Join(names, ","), time.Now().UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("recording save: %w", err)
		}
		return nil
	})
}

func (r *SQLiteAppraisalRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appraisals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting appraisal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveLog returns the most recent saves of an appraisal, newest first.
func (r *SQLiteAppraisalRepo) SaveLog(ctx context.Context, id string, limit int) ([]SaveEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT fields, saved_at FROM appraisal_saves
		WHERE appraisal_id = ? ORDER BY id DESC LIMIT ?`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	var out []SaveEntry
	for rows.Next() {
		var fields, savedAt string
		if err := rows.Scan(&fields, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning save: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, savedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing saved_at: %w", err)
		}
		out = append(out, SaveEntry{Fields: strings.Split(fields, ","), SavedAt: t})
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppraisal(row rowScanner) (*domain.Appraisal, error) {
	var (
		a                              domain.Appraisal
		templateType, status, propType string
		effectiveDate, createdAt       string
		updatedAt, sectionsJSON        string
		propertyID                     sql.NullString
		adjustmentsJSON, ageJSON       sql.NullString
	)
	err := row.Scan(&a.ID, &templateType, &effectiveDate, &a.CompletionPercentage, &status, &propertyID, &propType,
		&sectionsJSON, &adjustmentsJSON, &ageJSON, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning appraisal: %w", err)
	}
	a.TemplateType = domain.TemplateType(templateType)
	a.Status = domain.AppraisalStatus(status)
	a.PropertyType = domain.PropertyClass(propType)
	if propertyID.Valid {
		a.PropertyID = &propertyID.String
	}
	if a.EffectiveDate, err = time.Parse(dateLayout, effectiveDate); err != nil {
		return nil, fmt.Errorf("parsing effective_date: %w", err)
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if err := unmarshalJSON(sectionsJSON, &a.Sections); err != nil {
		return nil, fmt.Errorf("decoding sections: %w", err)
	}
	if a.Sections == nil {
		a.Sections = domain.SectionMap{}
	}
	var doc domain.AdjustmentDocument
	if ok, err := nullableJSON(adjustmentsJSON, &doc); err != nil {
		return nil, fmt.Errorf("decoding adjustments: %w", err)
	} else if ok {
		a.Adjustments = &doc
	}
	var ws domain.EffectiveAgeWorksheet
	if ok, err := nullableJSON(ageJSON, &ws); err != nil {
		return nil, fmt.Errorf("decoding effective age: %w", err)
	} else if ok {
		a.EffectiveAge = &ws
	}
	return &a, nil
}

// nullableDocument encodes a pointer document, mapping nil to SQL NULL.
func nullableDocument[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	return marshalJSON(v)
}
