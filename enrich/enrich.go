// Package enrich joins transactions with product catalog metadata.
//
// The join key is derived from the transaction's product id: a single
// leading "P" or "p" is dropped and the rest is read as a positive integer.
// A key present in the lookup matches directly. Catalog ids run from 1 to
// FoldRange, so a larger key that is not in the lookup is folded into that
// range with ((id-1) mod FoldRange)+1. Against a full catalog P150
// therefore looks up the same product as P50.
package enrich

import (
	"context"
	"math"
	"math/big"
	"strings"

	"github.com/robinvdvleuten/salesreport/logger"
	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/robinvdvleuten/salesreport/telemetry"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// FoldRange is the number of catalog ids keys are folded into.
const FoldRange = 100

var foldRange = big.NewInt(FoldRange)

// ProductKey returns the lookup key a product id resolves to. A key present
// in lookup is used as is; a key above FoldRange that is missing is folded
// into the catalog range. It reports false when the id is blank, not
// numeric, not positive, or resolves to no entry.
func ProductKey(productID string, lookup sales.Lookup) (int, bool) {
	n, ok := productNumber(productID)
	if !ok || len(lookup) == 0 {
		return 0, false
	}
	if n.IsInt64() && n.Int64() <= math.MaxInt {
		if _, ok := lookup[int(n.Int64())]; ok {
			return int(n.Int64()), true
		}
	}
	if n.Cmp(foldRange) <= 0 {
		return 0, false
	}

	key := fold(n)
	if _, ok := lookup[key]; !ok {
		return 0, false
	}
	return key, true
}

func resolve(productID string, lookup sales.Lookup) (sales.ProductInfo, bool) {
	key, ok := ProductKey(productID, lookup)
	if !ok {
		return sales.ProductInfo{}, false
	}
	return lookup[key], true
}

// productNumber reads the numeric part of a product id. It is parsed into a
// big.Int so arbitrarily long synthetic ids still fold.
func productNumber(productID string) (*big.Int, bool) {
	s := strings.TrimSpace(productID)
	if s == "" {
		return nil, false
	}
	if s[0] == 'P' || s[0] == 'p' {
		s = strings.TrimSpace(s[1:])
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() <= 0 {
		return nil, false
	}
	return n, true
}

func fold(n *big.Int) int {
	k := new(big.Int).Sub(n, big.NewInt(1))
	k.Mod(k, foldRange)
	return int(k.Int64()) + 1
}

// Enrich returns one enriched record per transaction, in input order.
// Transactions whose key is missing from lookup are marked unmatched; a
// nil or empty lookup leaves every record unmatched.
func Enrich(ctx context.Context, txs []sales.Transaction, lookup sales.Lookup) []sales.EnrichedTransaction {
	_, timer := telemetry.StartTimer(ctx, "enrich")
	defer timer.End()

	out := make([]sales.EnrichedTransaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, enrichOne(tx, lookup))
	}
	timer.Count(len(out))

	if len(txs) > 0 && len(lookup) == 0 {
		logger.FromContext(ctx).Warn().Int("transactions", len(txs)).Msg("product lookup is empty, no transaction will be enriched")
	}
	return out
}

func enrichOne(tx sales.Transaction, lookup sales.Lookup) sales.EnrichedTransaction {
	record := sales.EnrichedTransaction{Transaction: tx}

	info, ok := resolve(tx.ProductID, lookup)
	if !ok {
		return record
	}

	record.API = &sales.APIFields{
		Category: info.Category,
		Brand:    info.Brand,
		Rating:   info.Rating,
	}
	record.APIMatch = true
	return record
}

// Summary describes how well a batch was enriched.
type Summary struct {
	Total   int `json:"total"`
	Matched int `json:"matched"`

	// SuccessRate is Matched as a percentage of Total, rounded to two
	// places. It is zero for an empty batch.
	SuccessRate decimal.Decimal `json:"success_rate"`

	// Unmatched lists the distinct product ids that found no catalog entry,
	// sorted.
	Unmatched []string `json:"unmatched"`
}

// Summarize counts matched records and collects the unmatched product ids.
func Summarize(records []sales.EnrichedTransaction) Summary {
	s := Summary{Total: len(records), SuccessRate: decimal.Zero, Unmatched: []string{}}

	seen := map[string]struct{}{}
	for _, r := range records {
		if r.APIMatch {
			s.Matched++
			continue
		}
		if r.ProductID == "" {
			continue
		}
		if _, ok := seen[r.ProductID]; !ok {
			seen[r.ProductID] = struct{}{}
			s.Unmatched = append(s.Unmatched, r.ProductID)
		}
	}
	slices.Sort(s.Unmatched)

	if s.Total > 0 {
		s.SuccessRate = decimal.NewFromInt(int64(s.Matched)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(s.Total))).
			Round(2)
	}
	return s
}
