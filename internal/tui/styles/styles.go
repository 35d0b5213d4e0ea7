// Package styles holds the lipgloss styles shared by the watch view and the
// terminal confirmation prompt.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Set is the styles derived from one palette.
type Set struct {
	Palette Palette

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	StepDone   lipgloss.Style
	StepActive lipgloss.Style
	StepTodo   lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	Error      lipgloss.Style
	Muted      lipgloss.Style
	Box        lipgloss.Style
	Prompt     lipgloss.Style
	Badge      lipgloss.Style
}

// New builds the style set for a theme.
func New(theme ThemeName) Set {
	p := PaletteFor(theme)
	return Set{
		Palette: p,
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.Muted).
			Italic(true),
		StepDone:   lipgloss.NewStyle().Foreground(p.Secondary),
		StepActive: lipgloss.NewStyle().Bold(true).Foreground(p.Text).Background(p.Primary).Padding(0, 1),
		StepTodo:   lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1),
		Success:    lipgloss.NewStyle().Foreground(p.Secondary),
		Warning:    lipgloss.NewStyle().Foreground(p.Warning),
		Error:      lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		Muted:      lipgloss.NewStyle().Foreground(p.Muted),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Prompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Warning),
		Badge: lipgloss.NewStyle().
			Padding(0, 1).
			MarginRight(1),
	}
}

// StatusStyle returns the style for a step or sub-process status.
func (s Set) StatusStyle(status string) lipgloss.Style {
	switch status {
	case "completed", "approved":
		return s.Success
	case "failed", "rejected":
		return s.Error
	case "processing":
		return s.Warning
	default:
		return s.Muted
	}
}
