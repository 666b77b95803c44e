package template

import "github.com/alexanderramin/appraise/internal/domain"

// FileSchema is the top-level YAML structure of a template override file.
//
//	templates:
//	  - type: NAS
//	    name: Normes d'appraisal standard
//	    required_sections: [identification, description_propriete, ...]
type FileSchema struct {
	Version   string           `yaml:"version,omitempty"`
	Templates []TemplateConfig `yaml:"templates" validate:"required,min=1,dive"`
}

// TemplateConfig is the required-section layout of one template type.
// Order of RequiredSections is the display order of the form.
type TemplateConfig struct {
	Type             domain.TemplateType `yaml:"type" json:"type" validate:"required,oneof=NAS RPS CUSTOM AIC_FORM"`
	Name             string              `yaml:"name,omitempty" json:"name,omitempty"`
	RequiredSections []string            `yaml:"required_sections" json:"requiredSections" validate:"required,min=1,unique,dive,required"`
}

func (c TemplateConfig) clone() TemplateConfig {
	c.RequiredSections = append([]string(nil), c.RequiredSections...)
	return c
}

// Defaults returns the built-in layouts for the four template types.
func Defaults() []TemplateConfig {
	return []TemplateConfig{
		{
			Type: domain.TemplateNAS,
			Name: "Rapport narratif (NAS)",
			RequiredSections: []string{
				"identification",
				"description_propriete",
				domain.SectionDirectComparison,
				"conciliation",
				"certification",
			},
		},
		{
			Type: domain.TemplateRPS,
			Name: "Rapport sommaire (RPS)",
			RequiredSections: []string{
				"identification",
				"description_propriete",
				domain.SectionDirectComparison,
				"certification",
			},
		},
		{
			Type: domain.TemplateCustom,
			Name: "Gabarit personnalisé",
			RequiredSections: []string{
				"identification",
				"description_propriete",
			},
		},
		{
			Type: domain.TemplateAICForm,
			Name: "Formulaire ICE (AIC)",
			RequiredSections: []string{
				"identification",
				"mandat",
				"description_propriete",
				"analyse_marche",
				domain.SectionDirectComparison,
				"methode_cout",
				"conciliation",
				"certification",
			},
		},
	}
}
