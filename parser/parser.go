// Package parser turns raw pipe-delimited sales lines into transactions.
//
// Each line must hold exactly eight fields:
//
//	TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region
//
// Lines with a different field count, or whose quantity or unit price does
// not convert, are dropped. A dropped line never stops the rest of the input
// from being parsed.
package parser

import (
	"context"
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/robinvdvleuten/salesreport/telemetry"
	"github.com/shopspring/decimal"
)

const fieldCount = 8

// maxPriceDigits bounds both the integer digits and the decimal places of a
// unit price. Prices outside that range do not convert.
const maxPriceDigits = 30

var errPriceRange = errors.New("unit price out of range")

// Result holds the transactions parsed from a batch of lines together with
// the lines that were dropped.
type Result struct {
	Transactions []sales.Transaction
	Skipped      []*ParseError
}

// Parse converts lines in order. The header is expected to be stripped
// already; blank lines are ignored.
func Parse(ctx context.Context, lines []string) *Result {
	_, timer := telemetry.StartTimer(ctx, "parse")
	defer timer.End()

	result := &Result{Transactions: make([]sales.Transaction, 0, len(lines))}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		tx, err := ParseLine(line)
		if err != nil {
			err.Line = i + 1
			result.Skipped = append(result.Skipped, err)
			continue
		}
		tx.Line = i + 1
		result.Transactions = append(result.Transactions, tx)
	}

	timer.Count(len(result.Transactions))
	return result
}

// ParseTransactions is Parse without the dropped-line diagnostics.
func ParseTransactions(ctx context.Context, lines []string) []sales.Transaction {
	return Parse(ctx, lines).Transactions
}

// ParseLine converts a single line. The returned error has Line unset.
func ParseLine(line string) (sales.Transaction, *ParseError) {
	row := strings.TrimSpace(line)
	parts := strings.Split(row, "|")
	if len(parts) != fieldCount {
		return sales.Transaction{}, newFieldCountError(row, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	quantity, err := strconv.Atoi(stripCommas(parts[4]))
	if err != nil {
		return sales.Transaction{}, newConversionError(row, "quantity", parts[4], err)
	}

	price, err := parsePrice(stripCommas(parts[5]))
	if err != nil {
		return sales.Transaction{}, newConversionError(row, "unit price", parts[5], err)
	}

	return sales.Transaction{
		TransactionID: parts[0],
		Date:          parts[1],
		ProductID:     parts[2],
		ProductName:   stripCommas(parts[3]),
		Quantity:      quantity,
		UnitPrice:     price,
		CustomerID:    parts[6],
		Region:        parts[7],
	}, nil
}

// parsePrice reads a unit price. Exponent notation is accepted as long as
// the value stays within maxPriceDigits; NaN and infinities never parse.
func parsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}

	exp := int(price.Exponent())
	if exp < -maxPriceDigits {
		return decimal.Decimal{}, errPriceRange
	}
	digits := len(new(big.Int).Abs(price.Coefficient()).String())
	if digits+exp > maxPriceDigits {
		return decimal.Decimal{}, errPriceRange
	}
	return price, nil
}

func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
