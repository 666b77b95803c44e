package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/appraise/internal/domain"
)

// FormatEffectiveAge renders the effective-age worksheet.
func FormatEffectiveAge(ws *domain.EffectiveAgeWorksheet) string {
	if ws == nil {
		return Dim("No effective-age worksheet.") + "\n"
	}
	var b strings.Builder
	b.WriteString(Header("Effective age") + "\n")
	fmt.Fprintf(&b, "Chronological age:  %s yrs\n", FormatNumber(ws.ChronologicalAge))
	fmt.Fprintf(&b, "Economic life:      %s yrs\n", FormatNumber(ws.EconomicLife))
	if len(ws.Components) > 0 {
		rows := make([][]string, 0, len(ws.Components))
		for _, c := range ws.Components {
			rows = append(rows, []string{c.Name, FormatNumber(c.Age), FormatNumber(c.Weight)})
		}
		b.WriteString("\n")
		b.WriteString(RenderTableAligned([]string{"COMPONENT", "AGE", "WEIGHT"}, rows, []Align{AlignLeft, AlignRight, AlignRight}))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Effective age:      %s\n", Bold(FormatNumber(ws.EffectiveAge)+" yrs"))
	fmt.Fprintf(&b, "Remaining life:     %s yrs\n", FormatNumber(ws.RemainingEconomicLife))
	return b.String()
}
