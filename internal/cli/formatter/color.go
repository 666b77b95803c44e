package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/appraise/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// SaveStateIndicator returns a colored save state such as "● saved".
func SaveStateIndicator(state domain.SaveState) string {
	switch state {
	case domain.SaveSaved:
		return StyleGreen.Render("● saved")
	case domain.SaveSaving:
		return StyleBlue.Render("◌ saving")
	case domain.SaveUnsaved:
		return StyleYellow.Render("○ unsaved")
	default:
		return StyleDim.Render(string(state))
	}
}

// StatusPill returns a colored indicator for an appraisal's status.
func StatusPill(status domain.AppraisalStatus) string {
	switch status {
	case domain.AppraisalDraft:
		return StyleBlue.Render("○ Draft")
	case domain.AppraisalInProgress:
		return StyleGreen.Render("● In progress")
	case domain.AppraisalCompleted:
		return StyleDim.Render("✔ Completed")
	case domain.AppraisalArchived:
		return StyleDim.Render("✖ Archived")
	default:
		return StyleDim.Render(string(status))
	}
}

// TemplateBadge renders the template type in purple.
func TemplateBadge(t domain.TemplateType) string {
	if t == "" {
		return StyleDim.Render("--")
	}
	return StylePurple.Render(string(t))
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
