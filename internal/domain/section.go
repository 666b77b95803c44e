package domain

// CompletedField is the only section field the completion calculator reads.
const CompletedField = "completed"

// SectionRecord is the payload of one appraisal section. Apart from the
// completed flag the core treats every field as opaque.
type SectionRecord map[string]any

// Completed reports the section's completed flag. A missing or non-boolean
// flag counts as not completed.
func (r SectionRecord) Completed() bool {
	v, ok := r[CompletedField].(bool)
	return ok && v
}

// Merge returns a new record with payload fields laid over r. Only the top
// level is merged; nested values in payload replace those in r wholesale.
func (r SectionRecord) Merge(payload SectionRecord) SectionRecord {
	out := make(SectionRecord, len(r)+len(payload))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// Clone deep-copies the record so that callers cannot mutate shared state
// through nested maps or slices.
func (r SectionRecord) Clone() SectionRecord {
	if r == nil {
		return nil
	}
	out := make(SectionRecord, len(r))
	for k, v := range r {
		out[k] = CloneValue(v)
	}
	return out
}

// SectionMap maps section ids to their records.
type SectionMap map[string]SectionRecord

// Clone deep-copies every record in the map.
func (m SectionMap) Clone() SectionMap {
	out := make(SectionMap, len(m))
	for id, rec := range m {
		out[id] = rec.Clone()
	}
	return out
}

// CloneValue deep-copies the JSON-shaped values that section payloads hold.
// Scalars are returned as-is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = CloneValue(inner)
		}
		return out
	case SectionRecord:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = CloneValue(inner)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, inner := range t {
			out[i] = CloneValue(inner).(map[string]any)
		}
		return out
	default:
		return v
	}
}
