package importer

import (
	"fmt"
	"time"

	"github.com/alexanderramin/appraise/internal/domain"
)

const dateLayout = "2006-01-02"

var (
	validStatuses = map[string]bool{
		string(domain.AppraisalDraft): true, string(domain.AppraisalInProgress): true,
		string(domain.AppraisalCompleted): true, string(domain.AppraisalArchived): true,
	}
	validClasses = map[string]bool{
		string(domain.PropertyResidential): true, string(domain.PropertySemicommercial): true,
	}
)

// Validate checks an interchange document before conversion and returns
// every problem found.
func Validate(f *AppraisalFile) []error {
	var errs []error

	if f.Version != FormatVersion {
		errs = append(errs, fmt.Errorf("version: unsupported %d (expected %d)", f.Version, FormatVersion))
	}
	if f.TemplateType == "" {
		errs = append(errs, fmt.Errorf("templateType is required"))
	} else if !domain.ValidTemplateTypes[domain.TemplateType(f.TemplateType)] {
		errs = append(errs, fmt.Errorf("templateType: invalid value %q", f.TemplateType))
	}
	if f.EffectiveDate == "" {
		errs = append(errs, fmt.Errorf("effectiveDate is required"))
	} else if _, err := time.Parse(dateLayout, f.EffectiveDate); err != nil {
		errs = append(errs, fmt.Errorf("effectiveDate: invalid date format %q (expected YYYY-MM-DD)", f.EffectiveDate))
	}
	if f.Status != "" && !validStatuses[f.Status] {
		errs = append(errs, fmt.Errorf("status: invalid value %q", f.Status))
	}
	if f.PropertyType != "" && !validClasses[f.PropertyType] {
		errs = append(errs, fmt.Errorf("propertyType: invalid value %q", f.PropertyType))
	}
	for id := range f.Sections {
		if id == "" {
			errs = append(errs, fmt.Errorf("sections: empty section id"))
		}
	}

	errs = append(errs, validateAdjustments(f.Adjustments)...)
	errs = append(errs, validateEffectiveAge(f.EffectiveAge)...)
	return errs
}

func validateAdjustments(doc *domain.AdjustmentDocument) []error {
	if doc == nil {
		return nil
	}
	var errs []error
	if doc.PropertyType != "" && !validClasses[string(doc.PropertyType)] {
		errs = append(errs, fmt.Errorf("adjustments.propertyType: invalid value %q", doc.PropertyType))
	}
	switch doc.MeasurementSystem {
	case "", domain.MeasurementMetric, domain.MeasurementImperial:
	default:
		errs = append(errs, fmt.Errorf("adjustments.measurementSystem: invalid value %q", doc.MeasurementSystem))
	}
	seen := make(map[string]bool, len(doc.Comparables))
	for i, c := range doc.Comparables {
		switch {
		case c.ID == "":
			errs = append(errs, fmt.Errorf("adjustments.comparables[%d]: id is required", i))
		case seen[c.ID]:
			errs = append(errs, fmt.Errorf("adjustments.comparables[%d]: duplicate id %q", i, c.ID))
		}
		seen[c.ID] = true
		if c.SalePrice < 0 {
			errs = append(errs, fmt.Errorf("adjustments.comparables[%d]: salePrice must be >= 0", i))
		}
		if c.SaleDate != "" {
			if _, err := time.Parse(dateLayout, c.SaleDate); err != nil {
				errs = append(errs, fmt.Errorf("adjustments.comparables[%d]: invalid saleDate %q", i, c.SaleDate))
			}
		}
	}
	return errs
}

func validateEffectiveAge(ws *domain.EffectiveAgeWorksheet) []error {
	if ws == nil {
		return nil
	}
	var errs []error
	if ws.ChronologicalAge < 0 {
		errs = append(errs, fmt.Errorf("effectiveAge.chronologicalAge must be >= 0"))
	}
	if ws.EconomicLife < 0 {
		errs = append(errs, fmt.Errorf("effectiveAge.economicLife must be >= 0"))
	}
	for i, c := range ws.Components {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("effectiveAge.components[%d]: name is required", i))
		}
		if c.Weight < 0 {
			errs = append(errs, fmt.Errorf("effectiveAge.components[%d]: weight must be >= 0", i))
		}
	}
	return errs
}
