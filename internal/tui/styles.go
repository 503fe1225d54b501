package tui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Header  lipgloss.Style
	User    lipgloss.Style
	Bot     lipgloss.Style
	Pending lipgloss.Style
	Error   lipgloss.Style
	Status  lipgloss.Style
	Talking lipgloss.Style
}

func DefaultStyles() Styles {
	bubble := lipgloss.NewStyle().Padding(0, 1).MarginBottom(1)
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#5A56E0")).Padding(0, 1),
		User:    bubble.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3B82F6")),
		Bot:     bubble.Foreground(lipgloss.Color("#111827")).Background(lipgloss.Color("#E5E7EB")),
		Pending: bubble.Foreground(lipgloss.Color("#6B7280")).Italic(true),
		Error:   bubble.Foreground(lipgloss.Color("#B91C1C")).Background(lipgloss.Color("#FEE2E2")),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		Talking: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
	}
}
