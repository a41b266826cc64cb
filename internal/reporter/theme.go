package reporter

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	Secondary = lipgloss.Color("#A78BFA")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Danger    = lipgloss.Color("#EF4444")
	Info      = lipgloss.Color("#3B82F6")
)

// theme holds the styles for one output stream. Styles come from a renderer
// bound to that stream, so a pipe or file gets plain text.
type theme struct {
	dirPath  lipgloss.Style
	filePath lipgloss.Style
	size     lipgloss.Style
	notice   lipgloss.Style
	errLine  lipgloss.Style
	total    lipgloss.Style
}

func newTheme(w io.Writer) theme {
	r := lipgloss.NewRenderer(w)

	return theme{
		dirPath: r.NewStyle().
			Foreground(Secondary).
			Bold(true),

		filePath: r.NewStyle().
			Foreground(Info),

		size: r.NewStyle().
			Foreground(Warning),

		notice: r.NewStyle().
			Foreground(Warning).
			Bold(true),

		errLine: r.NewStyle().
			Foreground(Danger),

		total: r.NewStyle().
			Foreground(Success).
			Bold(true),
	}
}
