package adjustment

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/appraise/internal/domain"
)

// ErrNoComparisonTarget is returned by ProjectTotals when neither
// comparison section holds comparables.
var ErrNoComparisonTarget = errors.New("no comparison section with comparables")

// Derived fields written into the comparison section. Nothing else in a
// comparable entry is touched.
const (
	FieldTotalAdjustment        = "totalAdjustment"
	FieldGrossAdjustmentPercent = "grossAdjustmentPercent"
	FieldNetAdjustmentPercent   = "netAdjustmentPercent"
	FieldAdjustedValue          = "adjustedValue"
)

// Projection is the payload ProjectTotals prepares for the section store.
type Projection struct {
	Target Target
	// Payload is the merge payload for Target.Key. It carries only the
	// comparables field.
	Payload domain.SectionRecord
	// Matched counts section entries that received totals.
	Matched int
	// Unmatched lists calculator comparables with no section entry.
	Unmatched []string
}

// ProjectTotals maps the calculator's per-comparable totals onto the
// comparables of the active comparison section. Entries are matched by
// their "id" field when both sides carry one, otherwise by position.
// sections is not modified.
func ProjectTotals(doc *domain.AdjustmentDocument, sections domain.SectionMap, class domain.PropertyClass) (Projection, error) {
	target := SelectActiveComparisonSection(sections, class)
	if !target.Found() {
		return Projection{Target: target}, fmt.Errorf("%w (default %q)", ErrNoComparisonTarget, target.Key)
	}
	proj := Projection{Target: target}

	raw := domain.CloneValue(sections[target.Key][ComparablesField])
	var entries []map[string]any
	var list []any
	switch t := raw.(type) {
	case []any:
		list = t
		for i, v := range list {
			if rec, ok := v.(domain.SectionRecord); ok {
				list[i] = map[string]any(rec)
			}
			if m, ok := list[i].(map[string]any); ok {
				entries = append(entries, m)
			}
		}
	case []map[string]any:
		list = make([]any, len(t))
		for i, m := range t {
			list[i] = m
			entries = append(entries, m)
		}
	}

	byID := make(map[string]map[string]any, len(entries))
	for _, e := range entries {
		if id := domain.StringField(e, "id"); id != "" {
			byID[id] = e
		}
	}

	computed := Compute(doc)
	if computed == nil {
		computed = &domain.AdjustmentDocument{}
	}
	for i, c := range computed.Comparables {
		var entry map[string]any
		if c.ID != "" {
			entry = byID[c.ID]
		}
		if entry == nil && i < len(entries) && domain.StringField(entries[i], "id") == "" {
			entry = entries[i]
		}
		if entry == nil {
			proj.Unmatched = append(proj.Unmatched, c.ID)
			continue
		}
		entry[FieldTotalAdjustment] = c.TotalAdjustment
		entry[FieldGrossAdjustmentPercent] = c.GrossAdjustmentPercent
		entry[FieldNetAdjustmentPercent] = c.NetAdjustmentPercent
		entry[FieldAdjustedValue] = c.AdjustedValue
		proj.Matched++
	}

	proj.Payload = domain.SectionRecord{ComparablesField: list}
	return proj, nil
}
