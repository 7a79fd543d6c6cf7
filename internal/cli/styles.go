package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"fintrack/internal/stats"
)

var (
	PrimaryColor = lipgloss.Color("#4F46E5")
	SuccessColor = lipgloss.Color("#10B981")
	WarningColor = lipgloss.Color("#F59E0B")
	ErrorColor   = lipgloss.Color("#EF4444")
	MutedColor   = lipgloss.Color("#6B7280")
	CreditColor  = lipgloss.Color("#059669")
	DebitColor   = lipgloss.Color("#DC2626")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(PrimaryColor)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)
	CreditStyle  = lipgloss.NewStyle().Foreground(CreditColor)
	DebitStyle   = lipgloss.NewStyle().Foreground(DebitColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(1, 2)
)

const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
	InfoIcon    = "ℹ"
)

func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

func FormatSuccess(message string) string {
	return SuccessStyle.Render(fmt.Sprintf("%s %s", SuccessIcon, message))
}

func FormatError(message string) string {
	return ErrorStyle.Render(fmt.Sprintf("%s %s", ErrorIcon, message))
}

func FormatWarning(message string) string {
	return WarningStyle.Render(fmt.Sprintf("%s %s", WarningIcon, message))
}

func FormatInfo(message string) string {
	return InfoStyle.Render(fmt.Sprintf("%s %s", InfoIcon, message))
}

func RenderBox(title, content string) string {
	return BoxStyle.Render(TitleStyle.Render(title) + "\n" + content)
}

// LevelStyle colours a spending level.
func LevelStyle(level stats.Level) lipgloss.Style {
	switch level {
	case stats.LevelBlocked:
		return ErrorStyle
	case stats.LevelWarning:
		return WarningStyle
	default:
		return SuccessStyle
	}
}
