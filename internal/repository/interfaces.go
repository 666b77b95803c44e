package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/appraise/internal/domain"
)

// ErrNotFound is returned when no appraisal exists for an id.
var ErrNotFound = errors.New("not found")

// AppraisalPatch is a partial update. Nil fields are left untouched, so
// each save stream writes only the fields it owns.
type AppraisalPatch struct {
	Sections             domain.SectionMap
	Adjustments          *domain.AdjustmentDocument
	EffectiveAge         *domain.EffectiveAgeWorksheet
	CompletionPercentage *int
	Status               *domain.AppraisalStatus
}

// IsEmpty reports whether the patch writes nothing.
func (p AppraisalPatch) IsEmpty() bool {
	return p.Sections == nil && p.Adjustments == nil && p.EffectiveAge == nil &&
		p.CompletionPercentage == nil && p.Status == nil
}

// AppraisalRepo is the document store behind the editor. Every backend
// supports partial updates keyed by appraisal id.
type AppraisalRepo interface {
	Create(ctx context.Context, a *domain.Appraisal) error
	Read(ctx context.Context, id string) (*domain.Appraisal, error)
	Update(ctx context.Context, id string, patch AppraisalPatch) error
	List(ctx context.Context) ([]*domain.Appraisal, error)
	Delete(ctx context.Context, id string) error
}
