package testutil

import (
	"time"

	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/google/uuid"
)

// Appraisal options
type AppraisalOption func(*domain.Appraisal)

func WithTemplate(t domain.TemplateType) AppraisalOption {
	return func(a *domain.Appraisal) {
		a.TemplateType = t
	}
}

func WithStatus(s domain.AppraisalStatus) AppraisalOption {
	return func(a *domain.Appraisal) {
		a.Status = s
	}
}

func WithPropertyClass(c domain.PropertyClass) AppraisalOption {
	return func(a *domain.Appraisal) {
		a.PropertyType = c
	}
}

func WithPropertyID(id string) AppraisalOption {
	return func(a *domain.Appraisal) {
		a.PropertyID = &id
	}
}

func WithCompletion(pct int) AppraisalOption {
	return func(a *domain.Appraisal) {
		a.CompletionPercentage = pct
	}
}

// WithSection sets one section record.
func WithSection(id string, rec domain.SectionRecord) AppraisalOption {
	return func(a *domain.Appraisal) {
		if a.Sections == nil {
			a.Sections = domain.SectionMap{}
		}
		a.Sections[id] = rec
	}
}

// WithCompletedSections marks the given sections completed.
func WithCompletedSections(ids ...string) AppraisalOption {
	return func(a *domain.Appraisal) {
		if a.Sections == nil {
			a.Sections = domain.SectionMap{}
		}
		for _, id := range ids {
			a.Sections[id] = a.Sections[id].Merge(domain.SectionRecord{domain.CompletedField: true})
		}
	}
}

func WithAdjustments(doc *domain.AdjustmentDocument) AppraisalOption {
	return func(a *domain.Appraisal) {
		a.Adjustments = doc
	}
}

func WithEffectiveAge(ws *domain.EffectiveAgeWorksheet) AppraisalOption {
	return func(a *domain.Appraisal) {
		a.EffectiveAge = ws
	}
}

func NewTestAppraisal(opts ...AppraisalOption) *domain.Appraisal {
	now := time.Now().UTC().Truncate(time.Second)
	a := &domain.Appraisal{
		ID:            uuid.New().String(),
		TemplateType:  domain.TemplateNAS,
		EffectiveDate: time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC),
		Status:        domain.AppraisalDraft,
		PropertyType:  domain.PropertyResidential,
		Sections:      domain.SectionMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewTestAdjustmentDocument returns a metric document with one comparable
// whose five adjustments total +28000 on a 445000 sale.
func NewTestAdjustmentDocument(subjectID string) *domain.AdjustmentDocument {
	return &domain.AdjustmentDocument{
		SubjectPropertyID: subjectID,
		PropertyType:      domain.PropertyResidential,
		MeasurementSystem: domain.MeasurementMetric,
		DefaultRates: map[domain.Criterion]float64{
			domain.CriterionLivingArea: 700,
			domain.CriterionAge:        -800,
			domain.CriterionGarage:     15000,
			domain.CriterionCondition:  5000,
			domain.CriterionLotArea:    40,
		},
		Subject: map[domain.Criterion]float64{
			domain.CriterionLivingArea: 140,
			domain.CriterionAge:        25,
			domain.CriterionGarage:     1,
			domain.CriterionCondition:  2,
			domain.CriterionLotArea:    800,
		},
		Comparables: []domain.Comparable{{
			ID:        "comp-1",
			Address:   "45 chemin du Lac",
			SalePrice: 445000,
			SaleDate:  "2024-11-02",
			Values: map[domain.Criterion]float64{
				domain.CriterionLivingArea: 120,
				domain.CriterionAge:        15,
				domain.CriterionGarage:     0,
				domain.CriterionCondition:  3,
				domain.CriterionLotArea:    500,
			},
		}},
	}
}
