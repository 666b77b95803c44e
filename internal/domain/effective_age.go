package domain

import "math"

// AgeComponent is one building component of the effective-age worksheet
// (structure, roof, mechanical...). Weight is its share of replacement cost.
type AgeComponent struct {
	Name   string  `json:"name"`
	Age    float64 `json:"age"`
	Weight float64 `json:"weight"`
}

type EffectiveAgeWorksheet struct {
	ChronologicalAge      float64        `json:"chronologicalAge"`
	EconomicLife          float64        `json:"economicLife"`
	Components            []AgeComponent `json:"components"`
	EffectiveAge          float64        `json:"effectiveAge"`
	RemainingEconomicLife float64        `json:"remainingEconomicLife"`
}

// Recompute derives EffectiveAge as the weight-averaged component age,
// rounded to one decimal, and RemainingEconomicLife from it. With no
// weighted components the chronological age is used.
func (w *EffectiveAgeWorksheet) Recompute() {
	var weighted, totalWeight float64
	for _, c := range w.Components {
		if c.Weight <= 0 {
			continue
		}
		weighted += c.Age * c.Weight
		totalWeight += c.Weight
	}
	if totalWeight > 0 {
		w.EffectiveAge = math.Round(weighted/totalWeight*10) / 10
	} else {
		w.EffectiveAge = w.ChronologicalAge
	}
	w.RemainingEconomicLife = math.Max(0, w.EconomicLife-w.EffectiveAge)
}

// Clone deep-copies the worksheet.
func (w *EffectiveAgeWorksheet) Clone() *EffectiveAgeWorksheet {
	if w == nil {
		return nil
	}
	out := *w
	out.Components = append([]AgeComponent(nil), w.Components...)
	return &out
}
