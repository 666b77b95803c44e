package adjustment

import "github.com/alexanderramin/appraise/internal/domain"

// TargetReason tags how SelectActiveComparisonSection chose its key.
type TargetReason string

const (
	// TargetResidential: the direct-comparison section holds comparables.
	TargetResidential TargetReason = "residential"
	// TargetSemicommercialFallback: the direct-comparison section is absent
	// or empty and the semicommercial one holds comparables.
	TargetSemicommercialFallback TargetReason = "semicommercial_fallback"
	// TargetNone: neither section holds comparables. Key is the default
	// section for the property class.
	TargetNone TargetReason = "none"
)

// ComparablesField is the section field that holds the comparable list.
const ComparablesField = "comparables"

type Target struct {
	Key         string
	Reason      TargetReason
	Comparables []map[string]any
}

// Found reports whether a section with comparables was selected.
func (t Target) Found() bool {
	return t.Reason != TargetNone
}

// SelectActiveComparisonSection picks the section whose comparables receive
// synced totals. The residential section wins when it has comparables,
// otherwise the semicommercial one. Comparables are returned as shallow
// references into sections; callers clone before writing.
func SelectActiveComparisonSection(sections domain.SectionMap, class domain.PropertyClass) Target {
	if comps := comparablesOf(sections[domain.SectionDirectComparison]); len(comps) > 0 {
		return Target{Key: domain.SectionDirectComparison, Reason: TargetResidential, Comparables: comps}
	}
	if comps := comparablesOf(sections[domain.SectionSemicommercialComparison]); len(comps) > 0 {
		return Target{Key: domain.SectionSemicommercialComparison, Reason: TargetSemicommercialFallback, Comparables: comps}
	}
	key := domain.SectionDirectComparison
	if class == domain.PropertySemicommercial {
		key = domain.SectionSemicommercialComparison
	}
	return Target{Key: key, Reason: TargetNone}
}

// comparablesOf reads the comparable list, accepting both decoded JSON
// arrays and typed slices. Non-object entries are skipped.
func comparablesOf(rec domain.SectionRecord) []map[string]any {
	if rec == nil {
		return nil
	}
	switch list := rec[ComparablesField].(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, v := range list {
			switch m := v.(type) {
			case map[string]any:
				out = append(out, m)
			case domain.SectionRecord:
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}
