package domain

// Criterion names one axis of comparison between the subject and a
// comparable sale.
type Criterion string

const (
	CriterionLivingArea     Criterion = "living_area"
	CriterionLotArea        Criterion = "lot_area"
	CriterionFrontage       Criterion = "frontage"
	CriterionAge            Criterion = "age"
	CriterionBathrooms      Criterion = "bathrooms"
	CriterionGarage         Criterion = "garage"
	CriterionCondition      Criterion = "condition"
	CriterionLocation       Criterion = "location"
	CriterionBasementFinish Criterion = "basement_finish"
)

// AdjustmentLine is one criterion's row for one comparable. Override, when
// set, is an appraiser-entered adjustment that replaces the computed one.
type AdjustmentLine struct {
	Difference float64  `json:"difference"`
	Adjustment float64  `json:"adjustment"`
	Override   *float64 `json:"override,omitempty"`
}

// Effective returns the override when present, otherwise the computed
// adjustment.
func (l AdjustmentLine) Effective() float64 {
	return Float64FromPtrWithDefault(l.Adjustment, l.Override)
}

type Comparable struct {
	ID        string                       `json:"id"`
	Address   string                       `json:"address,omitempty"`
	SalePrice float64                      `json:"salePrice"`
	SaleDate  string                       `json:"saleDate,omitempty"`
	Values    map[Criterion]float64        `json:"values,omitempty"`
	Lines     map[Criterion]AdjustmentLine `json:"lines,omitempty"`

	TotalAdjustment        float64 `json:"totalAdjustment"`
	AdjustedValue          float64 `json:"adjustedValue"`
	GrossAdjustmentPercent float64 `json:"grossAdjustmentPercent"`
	NetAdjustmentPercent   float64 `json:"netAdjustmentPercent"`
}

// AdjustmentDocument is the state of the sales-comparison adjustment
// calculator. Values and rates are stored in metric units regardless of
// MeasurementSystem, which only selects the display unit.
type AdjustmentDocument struct {
	SubjectPropertyID string                `json:"subjectPropertyId"`
	PropertyType      PropertyClass         `json:"propertyType,omitempty" validate:"omitempty,oneof=residential semicommercial"`
	MeasurementSystem MeasurementSystem     `json:"measurementSystem" validate:"omitempty,oneof=metric imperial"`
	DefaultRates      map[Criterion]float64 `json:"defaultRates,omitempty"`
	Subject           map[Criterion]float64 `json:"subject,omitempty"`
	Comparables       []Comparable          `json:"comparables" validate:"dive"`
}

// Clone deep-copies the document.
func (d *AdjustmentDocument) Clone() *AdjustmentDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.DefaultRates = cloneCriterionMap(d.DefaultRates)
	out.Subject = cloneCriterionMap(d.Subject)
	out.Comparables = make([]Comparable, len(d.Comparables))
	for i, c := range d.Comparables {
		cc := c
		cc.Values = cloneCriterionMap(c.Values)
		if c.Lines != nil {
			cc.Lines = make(map[Criterion]AdjustmentLine, len(c.Lines))
			for k, line := range c.Lines {
				if line.Override != nil {
					v := *line.Override
					line.Override = &v
				}
				cc.Lines[k] = line
			}
		}
		out.Comparables[i] = cc
	}
	return &out
}

func cloneCriterionMap(m map[Criterion]float64) map[Criterion]float64 {
	if m == nil {
		return nil
	}
	out := make(map[Criterion]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
