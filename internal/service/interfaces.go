// Package service implements the appraisal lifecycle operations that sit
// outside an editing session: creation, listing, deletion, status changes,
// completion reports and file interchange.
package service

import (
	"context"
	"time"

	"github.com/alexanderramin/appraise/internal/completion"
	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/importer"
	"github.com/alexanderramin/appraise/internal/template"
)

type AppraisalService interface {
	Create(ctx context.Context, in CreateAppraisalInput) (*domain.Appraisal, error)
	Get(ctx context.Context, id string) (*domain.Appraisal, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Appraisal, error)
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status domain.AppraisalStatus) error
	CompletionReport(ctx context.Context, id string) (*CompletionReport, error)
	Templates() []template.TemplateConfig

	// Import stores an appraisal read from an interchange document.
	Import(ctx context.Context, f *importer.AppraisalFile) (*domain.Appraisal, error)
	Export(ctx context.Context, id string) (*importer.AppraisalFile, error)
}

// TemplateCatalog is the template configuration collaborator.
type TemplateCatalog interface {
	RequiredSections(t domain.TemplateType) ([]string, error)
	Templates() []template.TemplateConfig
}

// CreateAppraisalInput carries the fields an appraiser supplies when
// opening a new file.
type CreateAppraisalInput struct {
	TemplateType  domain.TemplateType    `json:"templateType" validate:"required,oneof=NAS RPS CUSTOM AIC_FORM"`
	EffectiveDate time.Time              `json:"effectiveDate"`
	PropertyID    string                 `json:"propertyId,omitempty" validate:"omitempty,max=64"`
	PropertyType  domain.PropertyClass   `json:"propertyType,omitempty" validate:"omitempty,oneof=residential semicommercial"`
	Status        domain.AppraisalStatus `json:"status,omitempty" validate:"omitempty,oneof=draft in_progress completed archived"`
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status       domain.AppraisalStatus
	TemplateType domain.TemplateType
}

// CompletionReport compares the stored percentage with the one the
// sections currently imply.
type CompletionReport struct {
	AppraisalID string                     `json:"appraisalId"`
	Template    domain.TemplateType        `json:"templateType"`
	Stored      int                        `json:"storedPercentage"`
	Computed    int                        `json:"computedPercentage"`
	Sections    []completion.SectionStatus `json:"sections"`
}

// Stale reports whether the stored percentage needs correcting.
func (r *CompletionReport) Stale() bool {
	return r.Stored != r.Computed
}
