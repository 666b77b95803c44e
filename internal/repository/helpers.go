package repository

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/alexanderramin/appraise/internal/domain"
)

const dateLayout = "2006-01-02"

// Field names shared by the key-value backends. Each save stream owns one
// field so that stream commits never overwrite each other.
const (
	fieldMeta         = "meta"
	fieldStatus       = "status"
	fieldCompletion   = "completion"
	fieldUpdatedAt    = "updatedAt"
	fieldSections     = "sections"
	fieldAdjustments  = "adjustments"
	fieldEffectiveAge = "effectiveAge"
)

// appraisalMeta holds the fields fixed at creation.
type appraisalMeta struct {
	ID            string               `json:"id"`
	TemplateType  domain.TemplateType  `json:"templateType"`
	EffectiveDate time.Time            `json:"effectiveDate"`
	PropertyID    *string              `json:"propertyId,omitempty"`
	PropertyType  domain.PropertyClass `json:"propertyType,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// encodeAppraisal flattens a into per-field values.
func encodeAppraisal(a *domain.Appraisal) (map[string]string, error) {
	meta, err := json.Marshal(appraisalMeta{
		ID:            a.ID,
		TemplateType:  a.TemplateType,
		EffectiveDate: a.EffectiveDate,
		PropertyID:    a.PropertyID,
		PropertyType:  a.PropertyType,
		CreatedAt:     a.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding appraisal meta: %w", err)
	}
	sections := a.Sections
	if sections == nil {
		sections = domain.SectionMap{}
	}
	status := a.Status
	pct := a.CompletionPercentage
	fields, err := encodePatch(AppraisalPatch{
		Sections:             sections,
		Adjustments:          a.Adjustments,
		EffectiveAge:         a.EffectiveAge,
		CompletionPercentage: &pct,
		Status:               &status,
	}, a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	fields[fieldMeta] = string(meta)
	return fields, nil
}

// encodePatch returns the values of the fields the patch writes, plus the
// update timestamp.
func encodePatch(p AppraisalPatch, now time.Time) (map[string]string, error) {
	fields := map[string]string{fieldUpdatedAt: now.UTC().Format(time.RFC3339Nano)}
	if p.Sections != nil {
		s, err := marshalJSON(p.Sections)
		if err != nil {
			return nil, fmt.Errorf("encoding sections: %w", err)
		}
		fields[fieldSections] = s
	}
	if p.Adjustments != nil {
		s, err := marshalJSON(p.Adjustments)
		if err != nil {
			return nil, fmt.Errorf("encoding adjustments: %w", err)
		}
		fields[fieldAdjustments] = s
	}
	if p.EffectiveAge != nil {
		s, err := marshalJSON(p.EffectiveAge)
		if err != nil {
			return nil, fmt.Errorf("encoding effective age: %w", err)
		}
		fields[fieldEffectiveAge] = s
	}
	if p.CompletionPercentage != nil {
		fields[fieldCompletion] = strconv.Itoa(*p.CompletionPercentage)
	}
	if p.Status != nil {
		fields[fieldStatus] = string(*p.Status)
	}
	return fields, nil
}

// decodeAppraisal rebuilds an appraisal from per-field values.
func decodeAppraisal(fields map[string]string) (*domain.Appraisal, error) {
	raw, ok := fields[fieldMeta]
	if !ok {
		return nil, ErrNotFound
	}
	var meta appraisalMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("decoding appraisal meta: %w", err)
	}
	a := &domain.Appraisal{
		ID:            meta.ID,
		TemplateType:  meta.TemplateType,
		EffectiveDate: meta.EffectiveDate,
		PropertyID:    meta.PropertyID,
		PropertyType:  meta.PropertyType,
		CreatedAt:     meta.CreatedAt,
		Status:        domain.AppraisalStatus(fields[fieldStatus]),
		Sections:      domain.SectionMap{},
	}
	if v := fields[fieldCompletion]; v != "" {
		pct, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("decoding completion: %w", err)
		}
		a.CompletionPercentage = pct
	}
	if v := fields[fieldUpdatedAt]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("decoding updated at: %w", err)
		}
		a.UpdatedAt = t
	}
	if err := unmarshalJSON(fields[fieldSections], &a.Sections); err != nil {
		return nil, fmt.Errorf("decoding sections: %w", err)
	}
	if v := fields[fieldAdjustments]; v != "" {
		a.Adjustments = &domain.AdjustmentDocument{}
		if err := unmarshalJSON(v, a.Adjustments); err != nil {
			return nil, fmt.Errorf("decoding adjustments: %w", err)
		}
	}
	if v := fields[fieldEffectiveAge]; v != "" {
		a.EffectiveAge = &domain.EffectiveAgeWorksheet{}
		if err := unmarshalJSON(v, a.EffectiveAge); err != nil {
			return nil, fmt.Errorf("decoding effective age: %w", err)
		}
	}
	if a.Sections == nil {
		a.Sections = domain.SectionMap{}
	}
	return a, nil
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// unmarshalJSON decodes s into v. An empty string leaves v untouched.
func unmarshalJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

// nullableJSON decodes a nullable JSON column into v and reports whether a
// value was present.
func nullableJSON(s sql.NullString, v any) (bool, error) {
	if !s.Valid || s.String == "" {
		return false, nil
	}
	return true, json.Unmarshal([]byte(s.String), v)
}

type assignment struct {
	field  string
	column string
	value  any
}

var sqliteColumns = map[string]string{
	fieldSections:     "sections_json",
	fieldAdjustments:  "adjustments_json",
	fieldEffectiveAge: "effective_age_json",
	fieldCompletion:   "completion_percentage",
	fieldStatus:       "status",
}

var postgresColumns = map[string]string{
	fieldSections:     "sections",
	fieldAdjustments:  "adjustments",
	fieldEffectiveAge: "effective_age",
	fieldCompletion:   "completion_percentage",
	fieldStatus:       "status",
}

// sqlAssignments lists the column writes of a patch in a fixed order.
func sqlAssignments(p AppraisalPatch, columns map[string]string) ([]assignment, error) {
	var out []assignment
	if p.Sections != nil {
		s, err := marshalJSON(p.Sections)
		if err != nil {
			return nil, fmt.Errorf("encoding sections: %w", err)
		}
		out = append(out, assignment{fieldSections, columns[fieldSections], s})
	}
	if p.Adjustments != nil {
		s, err := marshalJSON(p.Adjustments)
		if err != nil {
			return nil, fmt.Errorf("encoding adjustments: %w", err)
		}
		out = append(out, assignment{fieldAdjustments, columns[fieldAdjustments], s})
	}
	if p.EffectiveAge != nil {
		s, err := marshalJSON(p.EffectiveAge)
		if err != nil {
			return nil, fmt.Errorf("encoding effective age: %w", err)
		}
		out = append(out, assignment{fieldEffectiveAge, columns[fieldEffectiveAge], s})
	}
	if p.CompletionPercentage != nil {
		out = append(out, assignment{fieldCompletion, columns[fieldCompletion], *p.CompletionPercentage})
	}
	if p.Status != nil {
		out = append(out, assignment{fieldStatus, columns[fieldStatus], string(*p.Status)})
	}
	return out, nil
}

// nullableString converts a *string to a value suitable for SQL storage.
func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// nowUTC returns the current UTC time truncated to the precision the SQL
// backends keep.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
