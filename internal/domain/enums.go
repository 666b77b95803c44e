package domain

type TemplateType string

const (
	TemplateNAS     TemplateType = "NAS"
	TemplateRPS     TemplateType = "RPS"
	TemplateCustom  TemplateType = "CUSTOM"
	TemplateAICForm TemplateType = "AIC_FORM"
)

// ValidTemplateTypes is the canonical set of accepted template type strings.
var ValidTemplateTypes = map[TemplateType]bool{
	TemplateNAS: true, TemplateRPS: true, TemplateCustom: true, TemplateAICForm: true,
}

// TemplateTypes lists the template types in display order.
func TemplateTypes() []TemplateType {
	return []TemplateType{TemplateNAS, TemplateRPS, TemplateCustom, TemplateAICForm}
}

type AppraisalStatus string

const (
	AppraisalDraft      AppraisalStatus = "draft"
	AppraisalInProgress AppraisalStatus = "in_progress"
	AppraisalCompleted  AppraisalStatus = "completed"
	AppraisalArchived   AppraisalStatus = "archived"
)

type PropertyClass string

const (
	PropertyResidential    PropertyClass = "residential"
	PropertySemicommercial PropertyClass = "semicommercial"
)

type MeasurementSystem string

const (
	MeasurementMetric   MeasurementSystem = "metric"
	MeasurementImperial MeasurementSystem = "imperial"
)

// Section keys that the core itself reads. Every other section id is
// opaque to the core.
const (
	SectionDirectComparison         = "methode_parite"
	SectionSemicommercialComparison = "cout_parite"
)
