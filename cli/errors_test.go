package cli

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/salesreport/parser"
	"github.com/robinvdvleuten/salesreport/validation"
)

func TestErrorRenderer_RenderWithSourceLine(t *testing.T) {
	lines := []string{
		"T001|2024-12-01|P101|Laptop|2|45000|C001|North",
		"T002|2024-12-01|P5|Mouse|0|500|C002|South",
	}

	renderer := NewErrorRenderer(lines)
	output := renderer.Render(&validation.NonPositiveError{Line: 2, TransactionID: "T002", Field: "Quantity", Value: "0"})

	assert.Contains(t, output, "line 2 (T002): Quantity must be greater than zero, got 0")

	// Source lines are indented with 3 spaces
	found := false
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "   ") && strings.Contains(line, "T002|2024-12-01|P5|Mouse|0|500|C002|South") {
			found = true
		}
	}
	assert.True(t, found, "Expected indented source line")
}

func TestErrorRenderer_RenderParseErrorUsesItsOwnText(t *testing.T) {
	renderer := NewErrorRenderer(nil)
	output := renderer.Render(&parser.ParseError{Line: 4, Text: "a|b|c", Message: "expected 8 fields, found 3"})

	assert.Contains(t, output, "line 4: expected 8 fields, found 3")
	assert.Contains(t, output, "   a|b|c")
}

func TestErrorRenderer_RenderPlainError(t *testing.T) {
	renderer := NewErrorRenderer(nil)
	output := renderer.Render(fmt.Errorf("something broke"))

	assert.Contains(t, output, "something broke")
	assert.False(t, strings.Contains(output, "\n"))
}

func TestErrorRenderer_RenderAll(t *testing.T) {
	renderer := NewErrorRenderer(nil)

	assert.Equal(t, "", renderer.RenderAll(nil))

	output := renderer.RenderAll([]error{
		&validation.MissingFieldError{Line: 1, TransactionID: "T001", Field: "Region"},
		&validation.MissingFieldError{Line: 2, TransactionID: "T002", Field: "Date"},
	})
	parts := strings.Split(output, "\n\n")
	assert.Equal(t, 2, len(parts))
	assert.Contains(t, parts[0], "missing required field Region")
	assert.Contains(t, parts[1], "missing required field Date")
}
