// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles renders CLI text with ANSI styling when the writer supports it.
// Writers that are not terminals (files, buffers, pipes) get plain text.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a new Styles instance for the given writer.
func NewStyles(w io.Writer) *Styles {
	return &Styles{
		output: termenv.NewOutput(w),
	}
}

func (s *Styles) color(text, code string, bold bool) string {
	style := s.output.String(text).Foreground(s.output.Color(code))
	if bold {
		style = style.Bold()
	}
	return style.String()
}

// Warning returns a styled warning (yellow + bold).
func (s *Styles) Warning(text string) string {
	return s.color(text, "3", true)
}

// FilePath returns a styled file path (cyan).
func (s *Styles) FilePath(text string) string {
	return s.color(text, "6", false)
}

// Region returns a styled region name (yellow).
func (s *Styles) Region(text string) string {
	return s.color(text, "3", false)
}

// Amount returns a styled monetary amount (magenta).
func (s *Styles) Amount(text string) string {
	return s.color(text, "5", false)
}

// Identifier returns a styled transaction, product or customer id (blue).
func (s *Styles) Identifier(text string) string {
	return s.color(text, "4", false)
}

// Keyword returns a styled keyword (bold).
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).Bold().String()
}

// Dim returns dimmed text for secondary information.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Timing styles a duration label. Slow operations are highlighted,
// everything else is dimmed.
func (s *Styles) Timing(text string, slow bool) string {
	if slow {
		return s.Warning(text)
	}
	return s.Dim(text)
}
