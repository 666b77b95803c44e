package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/appraise/internal/template"
)

// FormatTemplateList renders each template with its required sections.
func FormatTemplateList(templates []template.TemplateConfig) string {
	if len(templates) == 0 {
		return Dim("No templates.") + "\n"
	}
	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, []string{
			TemplateBadge(t.Type),
			t.Name,
			fmt.Sprintf("%d", len(t.RequiredSections)),
			strings.Join(t.RequiredSections, ", "),
		})
	}
	return RenderTable([]string{"TYPE", "NAME", "REQUIRED", "SECTIONS"}, rows)
}
