package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/robinvdvleuten/salesreport/loader"
)

// Exit codes of commands that already reported their failure on stderr.
const (
	ExitRejected     = 1
	ExitMissingInput = 2
)

// CommandError ends a command with a specific process exit code. main exits
// with it without printing anything else.
type CommandError struct {
	code int
}

// NewCommandError creates a CommandError for the given exit code.
func NewCommandError(code int) *CommandError {
	return &CommandError{code: code}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// ExitCode returns the process exit code.
func (e *CommandError) ExitCode() int {
	return e.code
}

// reportMissingInput prints a missing input file and turns it into
// ExitMissingInput. Other errors are returned unchanged.
func reportMissingInput(w io.Writer, err error) error {
	var notFound *loader.FileNotFoundError
	if !errors.As(err, &notFound) {
		return err
	}
	printError(w, err.Error())
	return NewCommandError(ExitMissingInput)
}
