// Package errors renders the diagnostics produced while reading sales data
// in multiple formats (text, JSON) for different consumers (CLI, web UI,
// API).
//
// The package defines a Formatter interface and provides two
// implementations:
//   - TextFormatter: the message followed by the offending input line
//   - JSONFormatter: structured objects for the web API
//
// Error types remain in their packages (parser, validation, loader); this
// package only handles presentation.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/robinvdvleuten/salesreport/parser"
	"github.com/robinvdvleuten/salesreport/validation"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

// lineError is implemented by errors that point at an input line.
type lineError interface {
	error
	GetLine() int
}

// TextFormatter formats errors for command-line output.
type TextFormatter struct {
	lines []string
}

// TextFormatterOption is an option for configuring TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource sets the input lines so errors can quote the line they refer
// to.
func WithSource(lines []string) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.lines = lines
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format renders the error message, followed by the offending line when it
// is known.
func (tf *TextFormatter) Format(err error) string {
	if e, ok := err.(*parser.ParseError); ok && e.Text != "" {
		return withContext(e.Error(), e.Text)
	}

	if e, ok := err.(lineError); ok {
		if n := e.GetLine(); n > 0 && n <= len(tf.lines) {
			return withContext(e.Error(), tf.lines[n-1])
		}
	}

	return err.Error()
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, strings.TrimRight(tf.Format(err), "\n"))
	}
	return strings.Join(parts, "\n\n")
}

func withContext(message, line string) string {
	var buf bytes.Buffer
	buf.WriteString(message)
	buf.WriteString("\n\n   ")
	buf.WriteString(line)
	buf.WriteByte('\n')
	return buf.String()
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Line    int            `json:"line,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.toJSON(err))
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.toJSON(err))
	}
	return result
}

func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    typeName(err),
		Message: err.Error(),
		Details: make(map[string]any),
	}

	if e, ok := err.(lineError); ok {
		errJSON.Line = e.GetLine()
	}
	if e, ok := err.(validation.Rejection); ok && e.GetTransactionID() != "" {
		errJSON.Details["transaction_id"] = e.GetTransactionID()
	}

	switch e := err.(type) {
	case *validation.MissingFieldError:
		errJSON.Details["field"] = e.Field
	case *validation.NonPositiveError:
		errJSON.Details["field"] = e.Field
		errJSON.Details["value"] = e.Value
	case *validation.PrefixError:
		errJSON.Details["field"] = e.Field
		errJSON.Details["value"] = e.Value
		errJSON.Details["prefix"] = e.Prefix
	case *parser.ParseError:
		errJSON.Details["text"] = e.Text
	}

	if len(errJSON.Details) == 0 {
		errJSON.Details = nil
	}
	return errJSON
}

// typeName returns the bare type name, e.g. "PrefixError".
func typeName(err error) string {
	name := fmt.Sprintf("%T", err)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimPrefix(name, "*")
}

// Collect flattens parse and validation diagnostics into one slice, ordered
// by line.
func Collect(skipped []*parser.ParseError, rejections []validation.Rejection) []error {
	errs := make([]error, 0, len(skipped)+len(rejections))
	i, j := 0, 0
	for i < len(skipped) || j < len(rejections) {
		if j >= len(rejections) || (i < len(skipped) && skipped[i].GetLine() <= rejections[j].GetLine()) {
			errs = append(errs, skipped[i])
			i++
			continue
		}
		errs = append(errs, rejections[j])
		j++
	}
	return errs
}
