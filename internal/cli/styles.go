package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles renders terminal output. Colours are dropped automatically when
// the writer is not a terminal.
type styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Header   lipgloss.Style
	labelCol int
}

func newStyles(w io.Writer) *styles {
	r := lipgloss.NewRenderer(w)
	return &styles{
		Title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		Label:    r.NewStyle().Bold(true),
		Value:    r.NewStyle(),
		Muted:    r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Success:  r.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Warning:  r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Header:   r.NewStyle().Bold(true).Underline(true),
		labelCol: 22,
	}
}

// field renders "Label: value" with the label column padded
func (s *styles) field(label, value string) string {
	return s.Label.Width(s.labelCol).Render(label+":") + s.Value.Render(value)
}
