// Package completion derives the completion percentage of an appraisal from
// its template's required sections.
package completion

import (
	"math"

	"github.com/alexanderramin/appraise/internal/domain"
)

// Percentage returns round(100 * done / len(required)), where done counts
// the required sections whose completed flag is set. An empty required list
// yields 0. Only the completed flag is consulted.
func Percentage(required []string, sections domain.SectionMap) int {
	if len(required) == 0 {
		return 0
	}
	done := 0
	for _, id := range required {
		if sections[id].Completed() {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(required))))
}

// SectionStatus is one row of a completion breakdown.
type SectionStatus struct {
	SectionID string `json:"sectionId"`
	Completed bool   `json:"completed"`
	Present   bool   `json:"present"`
}

// Breakdown lists the required sections in template order with their state.
func Breakdown(required []string, sections domain.SectionMap) []SectionStatus {
	out := make([]SectionStatus, 0, len(required))
	for _, id := range required {
		rec, ok := sections[id]
		out = append(out, SectionStatus{
			SectionID: id,
			Completed: rec.Completed(),
			Present:   ok,
		})
	}
	return out
}
