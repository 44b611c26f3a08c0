package tui

import "github.com/charmbracelet/lipgloss"

var (
	portalGreen = lipgloss.Color("#97ce4c")
	neonGreen   = lipgloss.Color("#00ff9f")
	skyBlue     = lipgloss.Color("#8ee6ff")
	errorRed    = lipgloss.Color("#f87171")
	dimGray     = lipgloss.Color("241")
)

type styles struct {
	Title     lipgloss.Style
	Selected  lipgloss.Style
	Item      lipgloss.Style
	Dim       lipgloss.Style
	Error     lipgloss.Style
	NotFound  lipgloss.Style
	Label     lipgloss.Style
	Name      lipgloss.Style
	Section   lipgloss.Style
	Panel     lipgloss.Style
	Footer    lipgloss.Style
	FilterTag lipgloss.Style
}

func newStyles() styles {
	return styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(portalGreen).MarginBottom(1),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(neonGreen),
		Item:      lipgloss.NewStyle(),
		Dim:       lipgloss.NewStyle().Foreground(dimGray),
		Error:     lipgloss.NewStyle().Foreground(errorRed),
		NotFound:  lipgloss.NewStyle().Bold(true).Foreground(portalGreen),
		Label:     lipgloss.NewStyle().Bold(true).Foreground(portalGreen),
		Name:      lipgloss.NewStyle().Bold(true).Foreground(neonGreen),
		Section:   lipgloss.NewStyle().Bold(true).Foreground(skyBlue).MarginTop(1),
		Panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(neonGreen).Padding(0, 1),
		Footer:    lipgloss.NewStyle().MarginTop(1),
		FilterTag: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}
