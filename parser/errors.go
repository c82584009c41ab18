package parser

import "fmt"

// ParseError describes a line that could not be turned into a transaction.
// Such lines are dropped and never reach validation.
type ParseError struct {
	Line       int
	Text       string
	Message    string
	Underlying error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func (e *ParseError) GetLine() int {
	return e.Line
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

func newFieldCountError(text string, got int) *ParseError {
	return &ParseError{
		Text:    text,
		Message: fmt.Sprintf("expected %d fields, found %d", fieldCount, got),
	}
}

func newConversionError(text, field, value string, err error) *ParseError {
	return &ParseError{
		Text:       text,
		Message:    fmt.Sprintf("invalid %s %q", field, value),
		Underlying: err,
	}
}
