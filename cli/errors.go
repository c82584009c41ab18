package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	salesErrors "github.com/robinvdvleuten/salesreport/errors"
)

var (
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and the offending
// input line.
type ErrorRenderer struct {
	formatter *salesErrors.TextFormatter
}

// NewErrorRenderer creates a renderer with the loaded input lines for
// context.
func NewErrorRenderer(lines []string) *ErrorRenderer {
	return &ErrorRenderer{formatter: salesErrors.NewTextFormatter(salesErrors.WithSource(lines))}
}

// Render formats a single error: the message in the error style, quoted
// input lines dimmed.
func (r *ErrorRenderer) Render(err error) string {
	text := strings.TrimRight(r.formatter.Format(err), "\n")

	var buf strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			buf.WriteByte('\n')
		}
		switch {
		case i == 0:
			buf.WriteString(errorStyle.Render(line))
		case strings.HasPrefix(line, "   "):
			buf.WriteString("   ")
			buf.WriteString(errContextStyle.Render(strings.TrimPrefix(line, "   ")))
		default:
			buf.WriteString(line)
		}
	}
	return buf.String()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}
