package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/taskman/internal/core/domain"
)

// Palette shared with the rest of the tooling.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
)

var priorityStyles = map[domain.Priority]lipgloss.Style{
	domain.PriorityLow:    mutedStyle,
	domain.PriorityMedium: lipgloss.NewStyle(),
	domain.PriorityHigh:   warningStyle,
	domain.PriorityUrgent: errorStyle.Bold(true),
}

// colourEnabled reports whether w is a terminal that should get colour.
func colourEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// styled renders text with style when w is a terminal.
func styled(w io.Writer, style lipgloss.Style, text string) string {
	if !colourEnabled(w) {
		return text
	}
	return style.Render(text)
}

func priorityStyle(p domain.Priority) lipgloss.Style {
	if s, ok := priorityStyles[p]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
