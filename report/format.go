package report

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
)

// Money renders an amount with two decimals and comma thousands
// separators, e.g. 1,545,000.00.
func Money(d decimal.Decimal) string {
	fixed := d.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return sign + fixed
	}
	return sign + humanize.BigComma(n) + "." + frac
}

// Percent renders a percentage with two decimals and no sign.
func Percent(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// column is one fixed-width cell of a table row.
type column struct {
	text  string
	width int
	right bool
}

func left(text string, width int) column  { return column{text: text, width: width} }
func right(text string, width int) column { return column{text: text, width: width, right: true} }

func count(n int, width int) column {
	return right(strconv.Itoa(n), width)
}

// row pads every cell to its width. Cells wider than their column are not
// cut, matching the overflow behaviour of the column headers.
func row(cols ...column) string {
	var b strings.Builder
	for _, c := range cols {
		if c.right {
			b.WriteString(runewidth.FillLeft(c.text, c.width))
		} else {
			b.WriteString(runewidth.FillRight(c.text, c.width))
		}
	}
	return b.String()
}

// truncate shortens s to at most width display cells.
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "")
}
