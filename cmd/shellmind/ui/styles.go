// Package ui holds the visual styling for the shellmind interactive CLI.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"shellmind/internal/safety"
)

var (
	ColorUser      = lipgloss.Color("#2196F3") // blue
	ColorAssistant = lipgloss.Color("#f2f2f2") // near white
	ColorTool      = lipgloss.Color("#4db6ac") // teal
	ColorMuted     = lipgloss.Color("#6c7a89")
	ColorSuccess   = lipgloss.Color("#8BC34A") // lime
	ColorWarning   = lipgloss.Color("#FFC107") // amber
	ColorDanger    = lipgloss.Color("#e53935") // red
	ColorBorder    = lipgloss.Color("#2a3850")
)

// Styles bundles every lipgloss style the chat view needs.
type Styles struct {
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ToolLabel      lipgloss.Style
	ToolOutput     lipgloss.Style
	ErrorText      lipgloss.Style
	Muted          lipgloss.Style
	Status         lipgloss.Style
	Help           lipgloss.Style

	ApprovalBox     lipgloss.Style
	ApprovalCommand lipgloss.Style
	VerdictModerate lipgloss.Style
	VerdictDanger   lipgloss.Style
}

// DefaultStyles returns the standard chat theme.
func DefaultStyles() Styles {
	return Styles{
		UserLabel:      lipgloss.NewStyle().Foreground(ColorUser).Bold(true),
		AssistantLabel: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		ToolLabel:      lipgloss.NewStyle().Foreground(ColorTool),
		ToolOutput:     lipgloss.NewStyle().Foreground(ColorMuted),
		ErrorText:      lipgloss.NewStyle().Foreground(ColorDanger),
		Muted:          lipgloss.NewStyle().Foreground(ColorMuted),
		Status:         lipgloss.NewStyle().Foreground(ColorWarning),
		Help:           lipgloss.NewStyle().Foreground(ColorMuted).Italic(true),

		ApprovalBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorWarning).
			Padding(0, 1),
		ApprovalCommand: lipgloss.NewStyle().Bold(true),
		VerdictModerate: lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
		VerdictDanger:   lipgloss.NewStyle().Foreground(ColorDanger).Bold(true),
	}
}

// VerdictStyle picks the style matching a risk verdict.
func (s Styles) VerdictStyle(v safety.Verdict) lipgloss.Style {
	if v == safety.VerdictDangerous {
		return s.VerdictDanger
	}
	return s.VerdictModerate
}
