package tui

import "github.com/charmbracelet/lipgloss"

// 256-color palette.
const (
	colorDim    = lipgloss.Color("240")
	colorMuted  = lipgloss.Color("244")
	colorText   = lipgloss.Color("252")
	colorOK     = lipgloss.Color("46")
	colorFail   = lipgloss.Color("196")
	colorAccent = lipgloss.Color("86")
	colorWarn   = lipgloss.Color("214")
	colorUser   = lipgloss.Color("220")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	taskNameStyle = fg(colorText)
	taskDimStyle  = fg(colorDim)
	messageStyle  = fg(colorMuted)
	errorStyle    = fg(colorFail)
	spinnerStyle  = fg(colorAccent)
	warnStyle     = fg(colorWarn)
	footerStyle   = fg(colorDim).MarginTop(1)
	userStyle     = fg(colorUser).Bold(true)
	titleStyle    = fg(colorAccent).Bold(true)

	iconPending  = fg(colorDim).Render("○")
	iconComplete = fg(colorOK).Render("✓")
	iconError    = errorStyle.Render("✗")
	iconSkipped  = fg(colorDim).Render("–")
)

// StatusIcon returns the icon for status; running tasks show spinnerFrame.
func StatusIcon(status TaskStatus, spinnerFrame string) string {
	switch status {
	case StatusRunning:
		return spinnerStyle.Render(spinnerFrame)
	case StatusComplete:
		return iconComplete
	case StatusError:
		return iconError
	case StatusSkipped:
		return iconSkipped
	default:
		return iconPending
	}
}
