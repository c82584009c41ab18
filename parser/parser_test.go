package parser

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		fail     string
		id       string
		product  string
		quantity int
		price    string
		region   string
	}{
		{
			name:     "Simple",
			line:     "T001|2024-12-01|P101|Laptop|2|45000|C001|North",
			id:       "T001",
			product:  "Laptop",
			quantity: 2,
			price:    "45000",
			region:   "North",
		},
		{
			name:     "ThousandsSeparators",
			line:     "T002|2024-12-01|P102|Mouse,Wireless|1,200|1,500.50|C002|South",
			id:       "T002",
			product:  "MouseWireless",
			quantity: 1200,
			price:    "1500.5",
			region:   "South",
		},
		{
			name:     "SurroundingWhitespace",
			line:     "  T003 | 2024-12-02 | P3 | USB Cable | 3 | 250 | C003 | East  ",
			id:       "T003",
			product:  "USB Cable",
			quantity: 3,
			price:    "250",
			region:   "East",
		},
		{
			name:     "NegativeQuantityIsKept",
			line:     "T002|2024-12-01|P5|Mouse|-1|500|C002|South",
			id:       "T002",
			product:  "Mouse",
			quantity: -1,
			price:    "500",
			region:   "South",
		},
		{
			name:     "BlankFieldsAreKept",
			line:     "T004|2024-12-02|P7||1|99||",
			id:       "T004",
			product:  "",
			quantity: 1,
			price:    "99",
			region:   "",
		},
		{
			name: "TooFewFields",
			line: "T001|2024-12-01|P101|Laptop|2|45000|C001",
			fail: "line 0: expected 8 fields, found 7",
		},
		{
			name: "TooManyFields",
			line: "T001|2024-12-01|P101|Laptop|2|45000|C001|North|extra",
			fail: "line 0: expected 8 fields, found 9",
		},
		{
			name: "FractionalQuantity",
			line: "T001|2024-12-01|P101|Laptop|2.5|45000|C001|North",
			fail: `line 0: invalid quantity "2.5"`,
		},
		{
			name: "TextPrice",
			line: "T001|2024-12-01|P101|Laptop|2|free|C001|North",
			fail: `line 0: invalid unit price "free"`,
		},
		{
			name: "HugeExponentPrice",
			line: "T1|2024-12-01|P1|X|1|1e5000000|C1|North",
			fail: `line 0: invalid unit price "1e5000000"`,
		},
		{
			name: "TinyExponentPrice",
			line: "T1|2024-12-01|P1|X|1|1e-5000000|C1|North",
			fail: `line 0: invalid unit price "1e-5000000"`,
		},
		{
			name: "InfinitePrice",
			line: "T1|2024-12-01|P1|X|1|inf|C1|North",
			fail: `line 0: invalid unit price "inf"`,
		},
		{
			name: "NaNPrice",
			line: "T1|2024-12-01|P1|X|1|nan|C1|North",
			fail: `line 0: invalid unit price "nan"`,
		},
		{
			name:     "ExponentPriceInRange",
			line:     "T1|2024-12-01|P1|X|1|1.5e3|C1|North",
			id:       "T1",
			product:  "X",
			quantity: 1,
			price:    "1500",
			region:   "North",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := ParseLine(tt.line)
			if tt.fail != "" {
				assert.NotZero(t, err)
				assert.EqualError(t, err, tt.fail)
				return
			}
			assert.True(t, err == nil)
			assert.Equal(t, tt.id, tx.TransactionID)
			assert.Equal(t, tt.product, tx.ProductName)
			assert.Equal(t, tt.quantity, tx.Quantity)
			assert.Equal(t, tt.price, tx.UnitPrice.String())
			assert.Equal(t, tt.region, tx.Region)
		})
	}
}

func TestParse(t *testing.T) {
	lines := []string{
		"T001|2024-12-01|P101|Laptop|2|45,000|C001|North",
		"",
		"broken line",
		"T002|2024-12-01|P5|Mouse|-1|500|C002|South",
		"T003|2024-12-02|P3|Keyboard|one|1500|C003|North",
		"X003|2024-12-02|P3|Keyboard|1|1500|C003|North",
	}

	result := Parse(context.Background(), lines)

	assert.Equal(t, 3, len(result.Transactions))
	assert.Equal(t, "T001", result.Transactions[0].TransactionID)
	assert.Equal(t, 1, result.Transactions[0].Line)
	assert.Equal(t, "90000", result.Transactions[0].Amount().String())
	assert.Equal(t, "T002", result.Transactions[1].TransactionID)
	assert.Equal(t, 4, result.Transactions[1].Line)
	assert.Equal(t, "X003", result.Transactions[2].TransactionID)

	assert.Equal(t, 2, len(result.Skipped))
	assert.Equal(t, 3, result.Skipped[0].GetLine())
	assert.Equal(t, "broken line", result.Skipped[0].Text)
	assert.EqualError(t, result.Skipped[1], `line 5: invalid quantity "one"`)
	assert.Error(t, result.Skipped[1].Unwrap())
}

func TestParseTransactionsEmpty(t *testing.T) {
	assert.Equal(t, 0, len(ParseTransactions(context.Background(), nil)))
}
