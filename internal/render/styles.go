// Package render formats module records and EEPROM images for terminals.
package render

import "github.com/charmbracelet/lipgloss"

var (
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	muted     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	text      = lipgloss.AdaptiveColor{Light: "#343433", Dark: "#C1C6B2"}

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(highlight).MarginTop(1)
	labelStyle   = lipgloss.NewStyle().Foreground(muted).Width(18)
	valueStyle   = lipgloss.NewStyle().Foreground(text)
	okStyle      = lipgloss.NewStyle().Foreground(special)
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFCC00"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// Status colors a connector status for display.
func Status(s string) string {
	switch s {
	case "supported":
		return okStyle.Render(s)
	case "unsupported":
		return warnStyle.Render(s)
	case "unrecognized":
		return badStyle.Render(s)
	default:
		return valueStyle.Render(s)
	}
}

func field(label, value string) string {
	return labelStyle.Render(label+":") + " " + valueStyle.Render(value) + "\n"
}

func heading(s string) string {
	return headingStyle.Render("--- "+s+" ---") + "\n"
}
