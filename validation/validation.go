// Package validation rejects malformed transactions and applies the optional
// region and amount filters.
//
// Validation runs in two stages. Structural checks reject records with blank
// fields, non-positive quantities or prices, or identifiers with the wrong
// prefix. The surviving records are then narrowed by region and finally by
// amount. Every removed record is counted against exactly one stage.
package validation

import (
	"context"
	"strconv"
	"strings"

	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/robinvdvleuten/salesreport/telemetry"
	"github.com/shopspring/decimal"
)

// Filters holds the optional business filters. The zero value filters
// nothing.
type Filters struct {
	Region    string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

// Option configures Filters.
type Option func(*Filters)

// WithRegion keeps only transactions whose region matches, ignoring case and
// surrounding whitespace. A blank region disables the filter.
func WithRegion(region string) Option {
	return func(f *Filters) {
		f.Region = region
	}
}

// WithMinAmount keeps only transactions whose amount is at least amount.
func WithMinAmount(amount decimal.Decimal) Option {
	return func(f *Filters) {
		f.MinAmount = &amount
	}
}

// WithMaxAmount keeps only transactions whose amount is at most amount.
func WithMaxAmount(amount decimal.Decimal) Option {
	return func(f *Filters) {
		f.MaxAmount = &amount
	}
}

// WithFilters copies every filter from f.
func WithFilters(f Filters) Option {
	return func(dst *Filters) {
		*dst = f
	}
}

// NewFilters applies opts to the zero Filters.
func NewFilters(opts ...Option) Filters {
	var f Filters
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Summary counts how many records each stage removed.
type Summary struct {
	TotalInput       int `json:"total_input"`
	Invalid          int `json:"invalid"`
	FilteredByRegion int `json:"filtered_by_region"`
	FilteredByAmount int `json:"filtered_by_amount"`
	FinalCount       int `json:"final_count"`
}

// Result is the outcome of ValidateAndFilter.
type Result struct {
	Valid        []sales.Transaction
	InvalidCount int
	Summary      Summary

	// Rejections holds one error per structurally invalid record, in input
	// order.
	Rejections []Rejection
}

// ValidateAndFilter validates records and applies the configured filters.
// The input slice is not modified.
func ValidateAndFilter(ctx context.Context, records []sales.Transaction, opts ...Option) *Result {
	ctx, timer := telemetry.StartTimer(ctx, "validate")
	defer timer.End()

	filters := NewFilters(opts...)
	result := &Result{Summary: Summary{TotalInput: len(records)}}

	valid := make([]sales.Transaction, 0, len(records))
	for _, tx := range records {
		if err := Validate(tx); err != nil {
			result.Rejections = append(result.Rejections, err)
			continue
		}
		valid = append(valid, tx)
	}
	result.InvalidCount = len(result.Rejections)
	result.Summary.Invalid = result.InvalidCount

	afterRegion := filterByRegion(ctx, valid, filters.Region)
	result.Summary.FilteredByRegion = len(valid) - len(afterRegion)

	afterAmount := filterByAmount(ctx, afterRegion, filters.MinAmount, filters.MaxAmount)
	result.Summary.FilteredByAmount = len(afterRegion) - len(afterAmount)

	result.Valid = afterAmount
	result.Summary.FinalCount = len(afterAmount)

	timer.Count(len(afterAmount))
	return result
}

// Validate applies the structural checks to a single transaction and returns
// the first rule it breaks.
func Validate(tx sales.Transaction) Rejection {
	required := []struct {
		field string
		value string
	}{
		{"TransactionID", tx.TransactionID},
		{"Date", tx.Date},
		{"ProductID", tx.ProductID},
		{"ProductName", tx.ProductName},
		{"CustomerID", tx.CustomerID},
		{"Region", tx.Region},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &MissingFieldError{Line: tx.Line, TransactionID: tx.TransactionID, Field: r.field}
		}
	}

	if tx.Quantity <= 0 {
		return &NonPositiveError{Line: tx.Line, TransactionID: tx.TransactionID, Field: "Quantity", Value: strconv.Itoa(tx.Quantity)}
	}
	if !tx.UnitPrice.IsPositive() {
		return &NonPositiveError{Line: tx.Line, TransactionID: tx.TransactionID, Field: "UnitPrice", Value: tx.UnitPrice.String()}
	}

	prefixes := []struct {
		field  string
		value  string
		prefix string
	}{
		{"TransactionID", tx.TransactionID, "T"},
		{"ProductID", tx.ProductID, "P"},
		{"CustomerID", tx.CustomerID, "C"},
	}
	for _, p := range prefixes {
		if !strings.HasPrefix(strings.TrimSpace(p.value), p.prefix) {
			return &PrefixError{Line: tx.Line, TransactionID: tx.TransactionID, Field: p.field, Value: p.value, Prefix: p.prefix}
		}
	}

	return nil
}

func filterByRegion(ctx context.Context, records []sales.Transaction, region string) []sales.Transaction {
	target := strings.TrimSpace(region)
	if target == "" {
		return records
	}

	_, timer := telemetry.StartTimer(ctx, "filter region")
	defer timer.End()

	kept := make([]sales.Transaction, 0, len(records))
	for _, tx := range records {
		if strings.EqualFold(strings.TrimSpace(tx.Region), target) {
			kept = append(kept, tx)
		}
	}
	timer.Count(len(kept))
	return kept
}

func filterByAmount(ctx context.Context, records []sales.Transaction, lo, hi *decimal.Decimal) []sales.Transaction {
	if lo == nil && hi == nil {
		return records
	}

	_, timer := telemetry.StartTimer(ctx, "filter amount")
	defer timer.End()

	kept := make([]sales.Transaction, 0, len(records))
	for _, tx := range records {
		amount := tx.Amount()
		if lo != nil && amount.LessThan(*lo) {
			continue
		}
		if hi != nil && amount.GreaterThan(*hi) {
			continue
		}
		kept = append(kept, tx)
	}
	timer.Count(len(kept))
	return kept
}

// ParseBound reads an optional amount bound loosely: blank or non-numeric
// input reports no bound instead of an error. Thousands separators are
// ignored.
func ParseBound(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// BoundOptions turns loosely typed bound strings into options, skipping
// any bound that does not parse.
func BoundOptions(region, minAmount, maxAmount string) []Option {
	opts := []Option{WithRegion(region)}
	if lo, ok := ParseBound(minAmount); ok {
		opts = append(opts, WithMinAmount(lo))
	}
	if hi, ok := ParseBound(maxAmount); ok {
		opts = append(opts, WithMaxAmount(hi))
	}
	return opts
}
