package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/appraise/internal/domain"
)

// PostgresAppraisalRepo implements AppraisalRepo on Postgres through the
// pgx stdlib driver. Streams live in JSONB columns.
type PostgresAppraisalRepo struct {
	db *sql.DB
}

var _ AppraisalRepo = (*PostgresAppraisalRepo)(nil)

func NewPostgresAppraisalRepo(db *sql.DB) *PostgresAppraisalRepo {
	return &PostgresAppraisalRepo{db: db}
}

const pgAppraisalColumns = `id, template_type, effective_date, completion_percentage, status, property_id, property_type,
	sections::text, adjustments::text, effective_age::text, created_at, updated_at`

func (r *PostgresAppraisalRepo) Create(ctx context.Context, a *domain.Appraisal) error {
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
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO appraisals (id, template_type, effective_date, completion_percentage, status, property_id,
			property_type, sections, adjustments, effective_age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10::jsonb, $11, $12)`,
		a.ID, string(a.TemplateType), a.EffectiveDate, a.CompletionPercentage, string(a.Status),
		nullableString(a.PropertyID), string(a.PropertyType), sectionsJSON, adjustments, effectiveAge,
		a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert appraisal: %w", err)
	}
	return nil
}

func (r *PostgresAppraisalRepo) Read(ctx context.Context, id string) (*domain.Appraisal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pgAppraisalColumns+` FROM appraisals WHERE id = $1`, id)
	a, err := scanPgAppraisal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (r *PostgresAppraisalRepo) List(ctx context.Context) ([]*domain.Appraisal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pgAppraisalColumns+` FROM appraisals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list appraisals: %w", err)
	}
	defer rows.Close()
	var out []*domain.Appraisal
	for rows.Next() {
		a, err := scanPgAppraisal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresAppraisalRepo) Update(ctx context.Context, id string, patch AppraisalPatch) error {
	assigns, err := sqlAssignments(patch, postgresColumns)
	if err != nil {
		return err
	}
	sets := []string{"updated_at = NOW()"}
	args := make([]any, 0, len(assigns)+1)
	for _, a := range assigns {
		args = append(args, a.value)
		placeholder := fmt.Sprintf("$%d", len(args))
		switch a.field {
		case fieldSections, fieldAdjustments, fieldEffectiveAge:
			placeholder += "::jsonb"
		}
		sets = append(sets, a.column+" = "+placeholder)
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE appraisals SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update appraisal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appraisal: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *PostgresAppraisalRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appraisals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appraisal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanPgAppraisal(row rowScanner) (*domain.Appraisal, error) {
	var (
		a                              domain.Appraisal
		templateType, status, propType string
		sectionsJSON                   string
		propertyID                     sql.NullString
		adjustmentsJSON, ageJSON       sql.NullString
	)
	err := row.Scan(&a.ID, &templateType, &a.EffectiveDate, &a.CompletionPercentage, &status, &propertyID, &propType,
		&sectionsJSON, &adjustmentsJSON, &ageJSON, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan appraisal: %w", err)
	}
	a.TemplateType = domain.TemplateType(templateType)
	a.Status = domain.AppraisalStatus(status)
	a.PropertyType = domain.PropertyClass(propType)
	if propertyID.Valid {
		a.PropertyID = &propertyID.String
	}
	a.EffectiveDate = a.EffectiveDate.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	if err := unmarshalJSON(sectionsJSON, &a.Sections); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	if a.Sections == nil {
		a.Sections = domain.SectionMap{}
	}
	var doc domain.AdjustmentDocument
	if ok, err := nullableJSON(adjustmentsJSON, &doc); err != nil {
		return nil, fmt.Errorf("decode adjustments: %w", err)
	} else if ok {
		a.Adjustments = &doc
	}
	var ws domain.EffectiveAgeWorksheet
	if ok, err := nullableJSON(ageJSON, &ws); err != nil {
		return nil, fmt.Errorf("decode effective age: %w", err)
	} else if ok {
		a.EffectiveAge = &ws
	}
	return &a, nil
}
