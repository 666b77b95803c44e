package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/appraise/internal/completion"
	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/editor"
)

const dateLayout = "2006-01-02"

// FormatAppraisalList renders appraisals as a table, one per row.
func FormatAppraisalList(list []*domain.Appraisal) string {
	if len(list) == 0 {
		return Dim("No appraisals.") + "\n"
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			TruncID(a.ID),
			TemplateBadge(a.TemplateType),
			StatusPill(a.Status),
			RenderProgress(a.CompletionPercentage, 10),
			a.EffectiveDate.Format(dateLayout),
			a.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return RenderTable([]string{"ID", "TEMPLATE", "STATUS", "COMPLETION", "EFFECTIVE", "UPDATED"}, rows)
}

// FormatAppraisalDetail renders one appraisal with its section breakdown.
// computed is the percentage the sections imply; a mismatch with the
// stored value is flagged.
func FormatAppraisalDetail(a *domain.Appraisal, breakdown []completion.SectionStatus, computed int) string {
	var b strings.Builder
	b.WriteString(Header("Appraisal " + a.DisplayID()))
	b.WriteString("\n")

	field := func(label, value string) {
		fmt.Fprintf(&b, "%-16s %s\n", Dim(label), value)
	}
	field("ID", a.ID)
	field("Template", TemplateBadge(a.TemplateType))
	field("Status", StatusPill(a.Status))
	field("Property type", string(a.EffectivePropertyClass()))
	if a.PropertyID != nil {
		field("Property", *a.PropertyID)
	}
	field("Effective date", a.EffectiveDate.Format(dateLayout))
	completionLine := RenderProgress(a.CompletionPercentage, 20)
	if computed != a.CompletionPercentage {
		completionLine += StyleYellow.Render(fmt.Sprintf("  (sections imply %d%%)", computed))
	}
	field("Completion", completionLine)
	if a.EffectiveAge != nil {
		field("Effective age", fmt.Sprintf("%s yrs, %s remaining",
			FormatNumber(a.EffectiveAge.EffectiveAge), FormatNumber(a.EffectiveAge.RemainingEconomicLife)))
	}
	if a.Adjustments != nil {
		field("Comparables", fmt.Sprintf("%d", len(a.Adjustments.Comparables)))
	}

	b.WriteString("\n")
	b.WriteString(FormatSectionList(breakdown, OptionalSections(a.Sections, breakdown)))
	return b.String()
}

// FormatSectionList renders the required sections in template order, then
// any other sections present on the appraisal.
func FormatSectionList(breakdown []completion.SectionStatus, extra []string) string {
	rows := make([][]string, 0, len(breakdown)+len(extra))
	for _, s := range breakdown {
		state := StyleYellow.Render("○ pending")
		switch {
		case s.Completed:
			state = StyleGreen.Render("✔ done")
		case !s.Present:
			state = StyleDim.Render("· empty")
		}
		rows = append(rows, []string{s.SectionID, state, "required"})
	}
	for _, id := range extra {
		rows = append(rows, []string{id, StyleDim.Render("-"), Dim("optional")})
	}
	return RenderTable([]string{"SECTION", "STATE", ""}, rows)
}

// FormatSaveStatus renders each stream's save state and last error.
func FormatSaveStatus(st editor.Status) string {
	var b strings.Builder
	for _, stream := range domain.Streams() {
		fmt.Fprintf(&b, "%-14s %s", string(stream), SaveStateIndicator(st.States[stream]))
		if msg, ok := st.Errors[stream]; ok {
			b.WriteString("  " + StyleRed.Render(msg))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// OptionalSections lists, sorted, the sections present on the appraisal
// that the template does not require.
func OptionalSections(sections domain.SectionMap, breakdown []completion.SectionStatus) []string {
	required := make(map[string]bool, len(breakdown))
	for _, s := range breakdown {
		required[s.SectionID] = true
	}
	var out []string
	for id := range sections {
		if !required[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
