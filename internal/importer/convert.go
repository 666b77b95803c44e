package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/appraise/internal/adjustment"
	"github.com/alexanderramin/appraise/internal/completion"
	"github.com/alexanderramin/appraise/internal/domain"
)

// Convert builds an appraisal from a validated document. A missing id is
// generated. Derived values are recomputed rather than trusted: the grid
// totals, the effective age and the completion percentage against
// required.
func Convert(f *AppraisalFile, required []string, now time.Time) (*domain.Appraisal, error) {
	effective, err := time.Parse(dateLayout, f.EffectiveDate)
	if err != nil {
		return nil, fmt.Errorf("parsing effectiveDate: %w", err)
	}

	now = now.UTC().Truncate(time.Second)
	a := &domain.Appraisal{
		ID:            domain.CoalesceStr(f.ID, uuid.New().String()),
		TemplateType:  domain.TemplateType(f.TemplateType),
		EffectiveDate: effective,
		Status:        domain.AppraisalStatus(domain.CoalesceStr(f.Status, string(domain.AppraisalDraft))),
		PropertyType:  domain.PropertyClass(domain.CoalesceStr(f.PropertyType, string(domain.PropertyResidential))),
		Sections:      f.Sections.Clone(),
		Adjustments:   adjustment.Compute(f.Adjustments),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if f.PropertyID != nil {
		id := *f.PropertyID
		a.PropertyID = &id
	}
	if f.EffectiveAge != nil {
		a.EffectiveAge = f.EffectiveAge.Clone()
		a.EffectiveAge.Recompute()
	}
	a.CompletionPercentage = completion.Percentage(required, a.Sections)
	return a, nil
}

// Export builds the interchange document for a.
func Export(a *domain.Appraisal) *AppraisalFile {
	f := &AppraisalFile{
		Version:       FormatVersion,
		ID:            a.ID,
		TemplateType:  string(a.TemplateType),
		EffectiveDate: a.EffectiveDate.Format(dateLayout),
		Status:        string(a.Status),
		PropertyType:  string(a.PropertyType),
		Sections:      a.Sections.Clone(),
		Adjustments:   a.Adjustments.Clone(),
		EffectiveAge:  a.EffectiveAge.Clone(),
	}
	if a.PropertyID != nil {
		id := *a.PropertyID
		f.PropertyID = &id
	}
	return f
}
