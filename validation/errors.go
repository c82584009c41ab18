package validation

import "fmt"

// Rejection is implemented by every error that causes a transaction to be
// rejected during validation.
type Rejection interface {
	error
	GetLine() int
	GetTransactionID() string
}

// MissingFieldError is returned when a required field is blank.
type MissingFieldError struct {
	Line          int
	TransactionID string
	Field         string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %s", location(e.Line, e.TransactionID), e.Field)
}

func (e *MissingFieldError) GetLine() int             { return e.Line }
func (e *MissingFieldError) GetTransactionID() string { return e.TransactionID }

// NonPositiveError is returned when the quantity or unit price is zero or
// negative.
type NonPositiveError struct {
	Line          int
	TransactionID string
	Field         string
	Value         string
}

func (e *NonPositiveError) Error() string {
	return fmt.Sprintf("%s: %s must be greater than zero, got %s", location(e.Line, e.TransactionID), e.Field, e.Value)
}

func (e *NonPositiveError) GetLine() int             { return e.Line }
func (e *NonPositiveError) GetTransactionID() string { return e.TransactionID }

// PrefixError is returned when an identifier does not start with the letter
// its kind requires.
type PrefixError struct {
	Line          int
	TransactionID string
	Field         string
	Value         string
	Prefix        string
}

func (e *PrefixError) Error() string {
	return fmt.Sprintf("%s: %s %q must start with %q", location(e.Line, e.TransactionID), e.Field, e.Value, e.Prefix)
}

func (e *PrefixError) GetLine() int             { return e.Line }
func (e *PrefixError) GetTransactionID() string { return e.TransactionID }

func location(line int, id string) string {
	switch {
	case line > 0 && id != "":
		return fmt.Sprintf("line %d (%s)", line, id)
	case line > 0:
		return fmt.Sprintf("line %d", line)
	case id != "":
		return id
	default:
		return "transaction"
	}
}
