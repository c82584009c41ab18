// Package analytics computes the business aggregates of a validated batch of
// transactions. Every function is independent, reads its input without
// modifying it and returns freshly built values.
//
// Grouping keys are compared exactly. Groups that tie on the sort key keep
// the order in which they were first seen.
package analytics

import (
	"cmp"
	"math"
	"strings"

	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

var hundred = decimal.NewFromInt(100)

// RegionSales is the revenue of a single region.
type RegionSales struct {
	Region           string          `json:"region"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TransactionCount int             `json:"transaction_count"`
	Percentage       decimal.Decimal `json:"percentage"`
}

// ProductSales is the quantity and revenue of a single product name.
type ProductSales struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// CustomerStats summarizes the purchases of one customer.
type CustomerStats struct {
	CustomerID     string          `json:"customer_id"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	PurchaseCount  int             `json:"purchase_count"`
	AvgOrderValue  decimal.Decimal `json:"avg_order_value"`
	ProductsBought []string        `json:"products_bought"`
}

// DailySales is the activity of a single date.
type DailySales struct {
	Date             string          `json:"date"`
	Revenue          decimal.Decimal `json:"revenue"`
	TransactionCount int             `json:"transaction_count"`
	UniqueCustomers  int             `json:"unique_customers"`
}

// PeakDay is the date with the highest revenue. Found is false for an empty
// batch, in which case the other fields are zero.
type PeakDay struct {
	Date             string          `json:"date,omitempty"`
	Revenue          decimal.Decimal `json:"revenue"`
	TransactionCount int             `json:"transaction_count"`
	Found            bool            `json:"found"`
}

// RegionAverage is the mean transaction amount of a region.
type RegionAverage struct {
	Region  string          `json:"region"`
	Average decimal.Decimal `json:"average"`
}

// DateRange is the lexicographically smallest and largest date of a batch.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Empty reports whether the batch contained no dated records.
func (r DateRange) Empty() bool {
	return r.Start == ""
}

// TotalRevenue sums the amount of every transaction.
func TotalRevenue(txs []sales.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount())
	}
	return total
}

// AverageOrderValue is the total revenue divided by the number of
// transactions, zero for an empty batch.
func AverageOrderValue(txs []sales.Transaction) decimal.Decimal {
	if len(txs) == 0 {
		return decimal.Zero
	}
	return TotalRevenue(txs).Div(decimal.NewFromInt(int64(len(txs))))
}

// Dates returns the first and last date of the batch. Blank dates are
// ignored.
func Dates(txs []sales.Transaction) DateRange {
	var r DateRange
	for _, tx := range txs {
		if tx.Date == "" {
			continue
		}
		if r.Start == "" || tx.Date < r.Start {
			r.Start = tx.Date
		}
		if r.End == "" || tx.Date > r.End {
			r.End = tx.Date
		}
	}
	return r
}

// RegionWiseSales groups revenue by region, ordered by total sales
// descending. Percentages are of the grand total and rounded to two places.
func RegionWiseSales(txs []sales.Transaction) []RegionSales {
	groups := newOrdered[string, RegionSales]()
	total := decimal.Zero
	for _, tx := range txs {
		amount := tx.Amount()
		total = total.Add(amount)

		g := groups.get(tx.Region, func() RegionSales { return RegionSales{Region: tx.Region} })
		g.TotalSales = g.TotalSales.Add(amount)
		g.TransactionCount++
	}

	out := make([]RegionSales, 0, groups.len())
	groups.each(func(_ string, g *RegionSales) {
		r := *g
		r.Percentage = percentage(r.TotalSales, total)
		out = append(out, r)
	})

	slices.SortStableFunc(out, func(a, b RegionSales) int {
		return b.TotalSales.Cmp(a.TotalSales)
	})
	return out
}

// TopSellingProducts returns the n products with the highest quantity sold.
// A non-positive n yields an empty result.
func TopSellingProducts(txs []sales.Transaction, n int) []ProductSales {
	if n <= 0 {
		return []ProductSales{}
	}

	products := productTotals(txs)
	slices.SortStableFunc(products, func(a, b ProductSales) int {
		return cmp.Compare(b.Quantity, a.Quantity)
	})
	if len(products) > n {
		products = products[:n]
	}
	return products
}

// LowPerformingProducts returns the products whose total quantity is below
// threshold, ordered by quantity ascending.
func LowPerformingProducts(txs []sales.Transaction, threshold int) []ProductSales {
	products := productTotals(txs)

	low := make([]ProductSales, 0, len(products))
	for _, p := range products {
		if p.Quantity < threshold {
			low = append(low, p)
		}
	}
	slices.SortStableFunc(low, func(a, b ProductSales) int {
		return cmp.Compare(a.Quantity, b.Quantity)
	})
	return low
}

// addQuantity adds two quantities, saturating at the int bounds instead of
// wrapping around.
func addQuantity(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

func productTotals(txs []sales.Transaction) []ProductSales {
	groups := newOrdered[string, ProductSales]()
	for _, tx := range txs {
		g := groups.get(tx.ProductName, func() ProductSales { return ProductSales{Name: tx.ProductName} })
		g.Quantity = addQuantity(g.Quantity, tx.Quantity)
		g.Revenue = g.Revenue.Add(tx.Amount())
	}

	out := make([]ProductSales, 0, groups.len())
	groups.each(func(_ string, g *ProductSales) {
		out = append(out, *g)
	})
	return out
}

// CustomerAnalysis groups purchases by customer, ordered by total spent
// descending.
func CustomerAnalysis(txs []sales.Transaction) []CustomerStats {
	type acc struct {
		stats    CustomerStats
		products map[string]struct{}
	}

	groups := newOrdered[string, acc]()
	for _, tx := range txs {
		g := groups.get(tx.CustomerID, func() acc {
			return acc{stats: CustomerStats{CustomerID: tx.CustomerID}, products: map[string]struct{}{}}
		})
		g.stats.TotalSpent = g.stats.TotalSpent.Add(tx.Amount())
		g.stats.PurchaseCount++
		g.products[tx.ProductName] = struct{}{}
	}

	out := make([]CustomerStats, 0, groups.len())
	groups.each(func(_ string, g *acc) {
		s := g.stats
		s.AvgOrderValue = decimal.Zero
		if s.PurchaseCount > 0 {
			s.AvgOrderValue = s.TotalSpent.Div(decimal.NewFromInt(int64(s.PurchaseCount))).Round(2)
		}
		s.ProductsBought = make([]string, 0, len(g.products))
		for name := range g.products {
			s.ProductsBought = append(s.ProductsBought, name)
		}
		slices.Sort(s.ProductsBought)
		out = append(out, s)
	})

	slices.SortStableFunc(out, func(a, b CustomerStats) int {
		return b.TotalSpent.Cmp(a.TotalSpent)
	})
	return out
}

// DailySalesTrend groups revenue by date, ordered by date ascending.
func DailySalesTrend(txs []sales.Transaction) []DailySales {
	type acc struct {
		day       DailySales
		customers map[string]struct{}
	}

	groups := newOrdered[string, acc]()
	for _, tx := range txs {
		g := groups.get(tx.Date, func() acc {
			return acc{day: DailySales{Date: tx.Date}, customers: map[string]struct{}{}}
		})
		g.day.Revenue = g.day.Revenue.Add(tx.Amount())
		g.day.TransactionCount++
		if tx.CustomerID != "" {
			g.customers[tx.CustomerID] = struct{}{}
		}
	}

	out := make([]DailySales, 0, groups.len())
	groups.each(func(_ string, g *acc) {
		d := g.day
		d.UniqueCustomers = len(g.customers)
		out = append(out, d)
	})

	slices.SortStableFunc(out, func(a, b DailySales) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

// FindPeakSalesDay returns the date with the highest revenue. When several
// dates share the maximum the earliest one wins.
func FindPeakSalesDay(txs []sales.Transaction) PeakDay {
	var peak PeakDay
	for _, day := range DailySalesTrend(txs) {
		if !peak.Found || day.Revenue.GreaterThan(peak.Revenue) {
			peak = PeakDay{
				Date:             day.Date,
				Revenue:          day.Revenue,
				TransactionCount: day.TransactionCount,
				Found:            true,
			}
		}
	}
	return peak
}

// AverageTransactionValueByRegion returns the mean amount per region,
// ordered by the average descending. Regions with equal averages keep the
// order in which they were first seen.
func AverageTransactionValueByRegion(txs []sales.Transaction) []RegionAverage {
	type acc struct {
		total decimal.Decimal
		count int
	}

	groups := newOrdered[string, acc]()
	for _, tx := range txs {
		g := groups.get(tx.Region, func() acc { return acc{total: decimal.Zero} })
		g.total = g.total.Add(tx.Amount())
		g.count++
	}

	out := make([]RegionAverage, 0, groups.len())
	groups.each(func(region string, g *acc) {
		avg := decimal.Zero
		if g.count > 0 {
			avg = g.total.Div(decimal.NewFromInt(int64(g.count)))
		}
		out = append(out, RegionAverage{Region: region, Average: avg})
	})

	slices.SortStableFunc(out, func(a, b RegionAverage) int {
		return b.Average.Cmp(a.Average)
	})
	return out
}

func percentage(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(total).Round(2)
}
