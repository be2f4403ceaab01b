package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the view
type Styles struct {
	Header   lipgloss.Style
	Title    lipgloss.Style
	Credit   lipgloss.Style
	Position lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Frame    lipgloss.Style
}

// DefaultStyles returns the built-in palette
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0B84A5")),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E6E6E6")),
		Credit: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#8A8A8A")),
		Position: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6FB07F")),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C9A227")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E05555")),
		Frame: lipgloss.NewStyle().
			Padding(1, 2),
	}
}
