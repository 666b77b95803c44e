package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/appraise/internal/adjustment"
	"github.com/alexanderramin/appraise/internal/domain"
)

// FormatAdjustmentGrid renders every comparable's adjustment lines and
// totals in the document's display units.
func FormatAdjustmentGrid(doc *domain.AdjustmentDocument) string {
	if doc == nil || len(doc.Comparables) == 0 {
		return Dim("No comparables.") + "\n"
	}
	sys := doc.MeasurementSystem
	if sys == "" {
		sys = domain.MeasurementMetric
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", Dim("Units:"), string(sys))
	for i := range doc.Comparables {
		c := &doc.Comparables[i]
		title := c.ID
		if c.Address != "" {
			title += " · " + c.Address
		}
		b.WriteString(Header(title))
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %s", Dim("Sale"), FormatMoney(c.SalePrice))
		if c.SaleDate != "" {
			fmt.Fprintf(&b, " %s", Dim("on "+c.SaleDate))
		}
		b.WriteString("\n\n")

		rows := make([][]string, 0, len(c.Lines))
		for _, crit := range adjustment.ActiveCriteria(doc, c) {
			rows = append(rows, gridRow(doc, c, crit, sys))
		}
		b.WriteString(RenderTableAligned(
			[]string{"CRITERION", "SUBJECT", "COMPARABLE", "RATE", "ADJUSTMENT", "OVERRIDE"},
			rows,
			[]Align{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
		))
		fmt.Fprintf(&b, "%-16s %s\n", Dim("Total"), Bold(FormatSignedMoney(c.TotalAdjustment)))
		fmt.Fprintf(&b, "%-16s %s\n\n", Dim("Adjusted value"), Bold(FormatMoney(c.AdjustedValue)))
	}
	return b.String()
}

func gridRow(doc *domain.AdjustmentDocument, c *domain.Comparable, crit domain.Criterion, sys domain.MeasurementSystem) []string {
	spec, err := adjustment.Lookup(crit)
	if err != nil {
		spec = adjustment.CriterionSpec{Key: crit, Label: string(crit)}
	}
	unit := adjustment.UnitLabel(spec.Dimension, sys)
	value := func(m map[domain.Criterion]float64) string {
		v, ok := m[crit]
		if !ok {
			return Dim("--")
		}
		s := FormatNumber(adjustment.ToDisplay(v, spec.Dimension, sys))
		if unit != "" {
			s += " " + unit
		}
		return s
	}
	rate := Dim("--")
	if r, ok := doc.DefaultRates[crit]; ok {
		rate = FormatMoney(adjustment.RateToDisplay(r, spec.Dimension, sys))
		if unit != "" {
			rate += "/" + unit
		}
	}
	line := c.Lines[crit]
	override := ""
	adj := FormatSignedMoney(line.Adjustment)
	if line.Override != nil {
		override = StylePurple.Render(FormatSignedMoney(*line.Override))
		adj = Dim(adj)
	}
	return []string{spec.Label, value(doc.Subject), value(c.Values), rate, adj, override}
}

// FormatSyncResult describes where the comparable totals were written.
func FormatSyncResult(p adjustment.Projection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Synced %d comparable(s) into %s", p.Matched, Bold(p.Target.Key))
	if p.Target.Reason == adjustment.TargetSemicommercialFallback {
		b.WriteString(Dim(" (fallback)"))
	}
	b.WriteString("\n")
	if len(p.Unmatched) > 0 {
		fmt.Fprintf(&b, "%s %s\n", StyleYellow.Render("Not in section:"), strings.Join(p.Unmatched, ", "))
	}
	return b.String()
}
