package importer

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/alexanderramin/appraise/internal/domain"
)

// FormatVersion is the interchange format version written by Export.
const FormatVersion = 1

// AppraisalFile is the JSON interchange format for one appraisal: the
// stored fields plus every stream payload, without derived timestamps.
type AppraisalFile struct {
	Version       int                           `json:"version"`
	ID            string                        `json:"id,omitempty"`
	TemplateType  string                        `json:"templateType"`
	EffectiveDate string                        `json:"effectiveDate"`
	Status        string                        `json:"status,omitempty"`
	PropertyID    *string                       `json:"propertyId,omitempty"`
	PropertyType  string                        `json:"propertyType,omitempty"`
	Sections      domain.SectionMap             `json:"sections"`
	Adjustments   *domain.AdjustmentDocument    `json:"adjustments,omitempty"`
	EffectiveAge  *domain.EffectiveAgeWorksheet `json:"effectiveAge,omitempty"`
}

// Parse decodes an interchange document.
func Parse(data []byte) (*AppraisalFile, error) {
	var f AppraisalFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing appraisal file: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses an interchange file.
func LoadFile(path string) (*AppraisalFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Marshal encodes f as indented JSON.
func Marshal(f *AppraisalFile) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}
