// Package sales defines the records that flow through the sales reporting
// pipeline. Records are plain values: every stage builds a new slice instead of
// mutating the one it received.
package sales

import (
	"github.com/shopspring/decimal"
)

// Header is the column layout of a raw sales data file.
const Header = "TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region"

// Transaction is a single parsed sales record.
type Transaction struct {
	// Line is the 1-based position of the record in the parsed input, 0 when
	// the record was not produced by the parser.
	Line int

	TransactionID string
	Date          string // YYYY-MM-DD, compared as an opaque string
	ProductID     string
	ProductName   string
	Quantity      int
	UnitPrice     decimal.Decimal
	CustomerID    string
	Region        string
}

// Amount returns quantity × unit price. It is never stored.
func (t Transaction) Amount() decimal.Decimal {
	return t.UnitPrice.Mul(decimal.NewFromInt(int64(t.Quantity)))
}

// ProductInfo is third-party product metadata keyed by a small positive id.
type ProductInfo struct {
	Title    string
	Category string
	Brand    string
	Rating   float64
}

// Lookup maps catalog product ids to their metadata.
type Lookup map[int]ProductInfo

// APIFields holds the catalog attributes copied onto a matched transaction.
type APIFields struct {
	Category string
	Brand    string
	Rating   float64
}

// EnrichedTransaction is a Transaction joined with catalog metadata.
// API is nil exactly when APIMatch is false.
type EnrichedTransaction struct {
	Transaction

	API      *APIFields
	APIMatch bool
}

// Category returns the matched catalog category.
func (e EnrichedTransaction) Category() (string, bool) {
	if e.API == nil {
		return "", false
	}
	return e.API.Category, true
}

// Brand returns the matched catalog brand.
func (e EnrichedTransaction) Brand() (string, bool) {
	if e.API == nil {
		return "", false
	}
	return e.API.Brand, true
}

// Rating returns the matched catalog rating.
func (e EnrichedTransaction) Rating() (float64, bool) {
	if e.API == nil {
		return 0, false
	}
	return e.API.Rating, true
}
