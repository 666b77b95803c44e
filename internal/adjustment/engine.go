package adjustment

import (
	"fmt"
	"math"
	"sort"

	"github.com/alexanderramin/appraise/internal/domain"
)

// Compute returns a copy of doc with every comparable's lines and derived
// totals recomputed. doc itself is not modified.
//
// Active criteria are those with a default rate plus any criterion a
// comparable carries a manual override for. A criterion whose subject or
// comparable value is missing contributes no computed adjustment.
func Compute(doc *domain.AdjustmentDocument) *domain.AdjustmentDocument {
	out := doc.Clone()
	if out == nil {
		return nil
	}
	for i := range out.Comparables {
		computeComparable(out, &out.Comparables[i])
	}
	return out
}

func computeComparable(doc *domain.AdjustmentDocument, c *domain.Comparable) {
	lines := make(map[domain.Criterion]domain.AdjustmentLine, len(doc.DefaultRates))
	for _, crit := range ActiveCriteria(doc, c) {
		line := domain.AdjustmentLine{}
		if prev, ok := c.Lines[crit]; ok {
			line.Override = prev.Override
		}
		subject, okS := doc.Subject[crit]
		value, okC := c.Values[crit]
		if okS && okC {
			line.Difference, line.Adjustment = lineAdjustment(specFor(crit), subject, value, doc.DefaultRates[crit])
		}
		lines[crit] = line
	}
	c.Lines = lines

	var total float64
	for _, line := range lines {
		total += line.Effective()
	}
	total = round2(total)
	c.TotalAdjustment = total
	c.AdjustedValue = round2(c.SalePrice + total)
	// Both summary fields carry the dollar total, not a ratio of sale price.
	c.GrossAdjustmentPercent = total
	c.NetAdjustmentPercent = total
}

// lineAdjustment applies the criterion's policy. For step criteria the
// values are tier indexes and the difference is their integer delta.
func lineAdjustment(spec CriterionSpec, subject, comparable, rate float64) (difference, adjustment float64) {
	switch spec.Kind {
	case KindStep:
		difference = math.Round(subject) - math.Round(comparable)
	default:
		difference = subject - comparable
	}
	return difference, round2(difference * rate)
}

// ActiveCriteria returns the criteria adjusted for c, sorted by key.
func ActiveCriteria(doc *domain.AdjustmentDocument, c *domain.Comparable) []domain.Criterion {
	seen := make(map[domain.Criterion]bool, len(doc.DefaultRates))
	for crit := range doc.DefaultRates {
		seen[crit] = true
	}
	for crit, line := range c.Lines {
		if line.Override != nil {
			seen[crit] = true
		}
	}
	out := make([]domain.Criterion, 0, len(seen))
	for crit := range seen {
		out = append(out, crit)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetRate records the default rate for crit, entered in the document's
// display unit, and recomputes.
func SetRate(doc *domain.AdjustmentDocument, crit domain.Criterion, displayRate float64) (*domain.AdjustmentDocument, error) {
	spec, err := Lookup(crit)
	if err != nil {
		return nil, err
	}
	out := doc.Clone()
	if out.DefaultRates == nil {
		out.DefaultRates = map[domain.Criterion]float64{}
	}
	out.DefaultRates[crit] = RateFromDisplay(displayRate, spec.Dimension, out.MeasurementSystem)
	return Compute(out), nil
}

// SetSubjectValue records the subject's value for crit, entered in the
// display unit, and recomputes.
func SetSubjectValue(doc *domain.AdjustmentDocument, crit domain.Criterion, displayValue float64) (*domain.AdjustmentDocument, error) {
	spec, err := Lookup(crit)
	if err != nil {
		return nil, err
	}
	out := doc.Clone()
	if out.Subject == nil {
		out.Subject = map[domain.Criterion]float64{}
	}
	out.Subject[crit] = FromDisplay(displayValue, spec.Dimension, out.MeasurementSystem)
	return Compute(out), nil
}

// SetComparableValue records a comparable's value for crit, entered in the
// display unit, and recomputes.
func SetComparableValue(doc *domain.AdjustmentDocument, comparableID string, crit domain.Criterion, displayValue float64) (*domain.AdjustmentDocument, error) {
	spec, err := Lookup(crit)
	if err != nil {
		return nil, err
	}
	out := doc.Clone()
	c, err := findComparable(out, comparableID)
	if err != nil {
		return nil, err
	}
	if c.Values == nil {
		c.Values = map[domain.Criterion]float64{}
	}
	c.Values[crit] = FromDisplay(displayValue, spec.Dimension, out.MeasurementSystem)
	return Compute(out), nil
}

// SetOverride pins a manual adjustment on one line. A nil amount clears it.
func SetOverride(doc *domain.AdjustmentDocument, comparableID string, crit domain.Criterion, amount *float64) (*domain.AdjustmentDocument, error) {
	out := doc.Clone()
	c, err := findComparable(out, comparableID)
	if err != nil {
		return nil, err
	}
	if c.Lines == nil {
		c.Lines = map[domain.Criterion]domain.AdjustmentLine{}
	}
	line := c.Lines[crit]
	if amount != nil {
		v := *amount
		line.Override = &v
	} else {
		line.Override = nil
	}
	c.Lines[crit] = line
	return Compute(out), nil
}

// AddComparable appends a comparable sale and recomputes. Its id must be
// unique within the document.
func AddComparable(doc *domain.AdjustmentDocument, c domain.Comparable) (*domain.AdjustmentDocument, error) {
	if c.ID == "" {
		return nil, fmt.Errorf("comparable id is required")
	}
	out := doc.Clone()
	if out == nil {
		out = &domain.AdjustmentDocument{}
	}
	if _, err := findComparable(out, c.ID); err == nil {
		return nil, fmt.Errorf("comparable %q already exists", c.ID)
	}
	out.Comparables = append(out.Comparables, c)
	return Compute(out), nil
}

// RemoveComparable drops a comparable sale by id.
func RemoveComparable(doc *domain.AdjustmentDocument, comparableID string) (*domain.AdjustmentDocument, error) {
	out := doc.Clone()
	for i := range out.Comparables {
		if out.Comparables[i].ID == comparableID {
			out.Comparables = append(out.Comparables[:i], out.Comparables[i+1:]...)
			return Compute(out), nil
		}
	}
	return nil, fmt.Errorf("comparable %q not found", comparableID)
}

func findComparable(doc *domain.AdjustmentDocument, id string) (*domain.Comparable, error) {
	for i := range doc.Comparables {
		if doc.Comparables[i].ID == id {
			return &doc.Comparables[i], nil
		}
	}
	return nil, fmt.Errorf("comparable %q not found", id)
}
