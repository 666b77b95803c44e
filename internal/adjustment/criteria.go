// Package adjustment computes the sales-comparison adjustment grid and
// projects its totals into the direct-comparison section.
package adjustment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/alexanderramin/appraise/internal/domain"
)

// ErrUnknownCriterion is returned when a criterion is not in the catalogue.
var ErrUnknownCriterion = errors.New("unknown adjustment criterion")

// Kind selects the adjustment policy of a criterion.
type Kind string

const (
	// KindContinuous: adjustment = (subject - comparable) * unit rate.
	KindContinuous Kind = "continuous"
	// KindStep: adjustment = tier delta * step rate.
	KindStep Kind = "step"
)

// Dimension is the physical quantity a criterion value measures. Only area
// and length differ between metric and imperial display.
type Dimension string

const (
	DimArea   Dimension = "area"
	DimLength Dimension = "length"
	DimYears  Dimension = "years"
	DimCount  Dimension = "count"
	DimTier   Dimension = "tier"
)

type CriterionSpec struct {
	Key       domain.Criterion
	Label     string
	Kind      Kind
	Dimension Dimension
}

var catalogue = map[domain.Criterion]CriterionSpec{
	domain.CriterionLivingArea:     {domain.CriterionLivingArea, "Living area", KindContinuous, DimArea},
	domain.CriterionLotArea:        {domain.CriterionLotArea, "Lot area", KindContinuous, DimArea},
	domain.CriterionFrontage:       {domain.CriterionFrontage, "Frontage", KindContinuous, DimLength},
	domain.CriterionAge:            {domain.CriterionAge, "Age", KindContinuous, DimYears},
	domain.CriterionBathrooms:      {domain.CriterionBathrooms, "Bathrooms", KindContinuous, DimCount},
	domain.CriterionGarage:         {domain.CriterionGarage, "Garage", KindStep, DimTier},
	domain.CriterionCondition:      {domain.CriterionCondition, "Condition", KindStep, DimTier},
	domain.CriterionLocation:       {domain.CriterionLocation, "Location", KindStep, DimTier},
	domain.CriterionBasementFinish: {domain.CriterionBasementFinish, "Basement finish", KindStep, DimTier},
}

// Lookup returns the catalogue entry for c.
func Lookup(c domain.Criterion) (CriterionSpec, error) {
	spec, ok := catalogue[c]
	if !ok {
		return CriterionSpec{}, fmt.Errorf("%w: %q", ErrUnknownCriterion, c)
	}
	return spec, nil
}

// specFor is Lookup with a continuous fallback so that documents carrying
// criteria added after they were saved still compute.
func specFor(c domain.Criterion) CriterionSpec {
	if spec, ok := catalogue[c]; ok {
		return spec
	}
	return CriterionSpec{Key: c, Label: string(c), Kind: KindContinuous, Dimension: DimCount}
}

// Criteria lists the catalogue sorted by key.
func Criteria() []CriterionSpec {
	out := make([]CriterionSpec, 0, len(catalogue))
	for _, spec := range catalogue {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
