// Package tui provides the Bubble Tea view for an interactive submission.
//
// TUI rules:
//   - TUI is opt-in only (--tui flag)
//   - The view renders the same WorkflowState the non-TUI output reports
//   - Quitting the view cancels the in-flight submission
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/ferry/types"
)

// Color palette.
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// Styles for TUI components.
var (
	// TitleStyle for headers and titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// LabelStyle for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(12)

	// ValueStyle for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// SuccessStyle for success states.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// WarningStyle for in-progress states.
	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	// ErrorStyle for error states.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// BoxStyle for bordered containers.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// StateStyle returns a style based on the workflow state kind.
func StateStyle(kind types.StateKind) lipgloss.Style {
	switch kind {
	case types.StateCompleted:
		return SuccessStyle
	case types.StateUploading, types.StateAwaitingResult:
		return WarningStyle
	case types.StateFailed:
		return ErrorStyle
	default:
		return ValueStyle
	}
}
