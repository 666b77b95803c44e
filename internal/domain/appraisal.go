package domain

import (
	"fmt"
	"time"
)

type Appraisal struct {
	ID                   string
	TemplateType         TemplateType
	EffectiveDate        time.Time
	CompletionPercentage int
	Status               AppraisalStatus
	PropertyID           *string
	PropertyType         PropertyClass

	// Stream-owned payloads. Each one is written by exactly one save
	// stream and never by another.
	Sections     SectionMap
	Adjustments  *AdjustmentDocument
	EffectiveAge *EffectiveAgeWorksheet

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateTemplateType reports whether the appraisal carries one of the four
// known template layouts.
func (a *Appraisal) ValidateTemplateType() error {
	if !ValidTemplateTypes[a.TemplateType] {
		return fmt.Errorf("template type %q must be one of NAS, RPS, CUSTOM, AIC_FORM", a.TemplateType)
	}
	return nil
}

// DisplayID returns the first 8 characters of the identifier.
func (a *Appraisal) DisplayID() string {
	if len(a.ID) >= 8 {
		return a.ID[:8]
	}
	return a.ID
}

// EffectivePropertyClass falls back to residential when no property type was
// recorded on the appraisal.
func (a *Appraisal) EffectivePropertyClass() PropertyClass {
	if a.PropertyType == "" {
		return PropertyResidential
	}
	return a.PropertyType
}
