package enrich

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/shopspring/decimal"
)

// Header is the first line of an enriched data file. The misspelled first
// column is kept because downstream readers match on it.
const Header = "TransactonID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region|API_Category|API_Brand|API_Rating|API_Match"

// Write writes records as pipe-delimited rows preceded by Header. Catalog
// fields of unmatched records are left empty.
func Write(w io.Writer, records []sales.EnrichedTransaction) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header + "\n"); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := bw.WriteString(FormatRow(r) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes records to path, creating parent directories as needed.
func WriteFile(path string, records []sales.EnrichedTransaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, records); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// FormatRow renders a single enriched record.
func FormatRow(r sales.EnrichedTransaction) string {
	category, brand, rating := "", "", ""
	if r.API != nil {
		category = r.API.Category
		brand = r.API.Brand
		rating = formatFloat(r.API.Rating)
	}
	match := "False"
	if r.APIMatch {
		match = "True"
	}

	return strings.Join([]string{
		r.TransactionID,
		r.Date,
		r.ProductID,
		r.ProductName,
		strconv.Itoa(r.Quantity),
		formatDecimal(r.UnitPrice),
		r.CustomerID,
		r.Region,
		category,
		brand,
		rating,
		match,
	}, "|")
}

// formatDecimal writes whole numbers with a trailing ".0" so prices read the
// same as in files produced by earlier tooling (45000.0, 1500.5).
func formatDecimal(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.Truncate(0).String() + ".0"
	}
	return d.String()
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
