package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title      lipgloss.Style
	ModePill   lipgloss.Style
	Section    lipgloss.Style
	ActiveLine lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style

	Author      lipgloss.Style
	Timestamp   lipgloss.Style
	Message     lipgloss.Style
	Placeholder lipgloss.Style
	Banner      lipgloss.Style

	CounterOK   lipgloss.Style
	CounterLow  lipgloss.Style
	CounterOver lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:   lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		Section:    lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		ActiveLine: lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		MetaLabel:  lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:  lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle:  lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:  lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:  lipgloss.NewStyle().Foreground(cpPeach),

		Author:      lipgloss.NewStyle().Bold(true).Foreground(cpText),
		Timestamp:   lipgloss.NewStyle().Foreground(cpOverlay1),
		Message:     lipgloss.NewStyle().Foreground(cpSubtext1),
		Placeholder: lipgloss.NewStyle().Foreground(cpSurface0),
		Banner:      lipgloss.NewStyle().Bold(true).Foreground(cpYellow),

		CounterOK:   lipgloss.NewStyle().Foreground(cpSubtext0),
		CounterLow:  lipgloss.NewStyle().Foreground(cpYellow),
		CounterOver: lipgloss.NewStyle().Bold(true).Foreground(cpRed),
	}
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}

// StyleCharsLeft picks the counter style for the remaining-character
// count: normal, running low (under 50), or over the limit.
func (t Theme) StyleCharsLeft(left int) lipgloss.Style {
	switch {
	case left < 0:
		return t.CounterOver
	case left < 50:
		return t.CounterLow
	default:
		return t.CounterOK
	}
}
