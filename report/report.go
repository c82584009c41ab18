// Package report renders the fixed-layout sales analytics report.
//
// The report is built from two inputs: the validated transactions, from
// which every aggregate is recomputed, and the enriched transactions, which
// only feed the enrichment summary. Column widths and section order are
// fixed so reports can be diffed between runs.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robinvdvleuten/salesreport/analytics"
	"github.com/robinvdvleuten/salesreport/enrich"
	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/robinvdvleuten/salesreport/telemetry"
)

const (
	DefaultTopN         = 5
	DefaultLowThreshold = 10

	ruleWidth  = 45
	nameWidth  = 21
	timeLayout = "2006-01-02 15:04:05"
)

// Renderer produces report text.
type Renderer struct {
	now          func() time.Time
	topN         int
	lowThreshold int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock overrides the clock used for the generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// WithTopN sets how many products and customers are listed.
func WithTopN(n int) Option {
	return func(r *Renderer) {
		r.topN = n
	}
}

// WithLowThreshold sets the quantity below which a product is listed as a
// low performer.
func WithLowThreshold(n int) Option {
	return func(r *Renderer) {
		r.lowThreshold = n
	}
}

// New creates a Renderer with the given options.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		now:          time.Now,
		topN:         DefaultTopN,
		lowThreshold: DefaultLowThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the complete report.
func (r *Renderer) Render(ctx context.Context, valid []sales.Transaction, enriched []sales.EnrichedTransaction) string {
	_, timer := telemetry.StartTimer(ctx, "render")
	defer timer.End()

	var lines []string
	for _, section := range []func([]sales.Transaction, []sales.EnrichedTransaction) []string{
		r.header,
		r.overall,
		r.regions,
		r.products,
		r.customers,
		r.daily,
		r.performance,
		r.enrichment,
	} {
		lines = append(lines, section(valid, enriched)...)
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// Write renders the report to w.
func (r *Renderer) Write(ctx context.Context, w io.Writer, valid []sales.Transaction, enriched []sales.EnrichedTransaction) error {
	_, err := io.WriteString(w, r.Render(ctx, valid, enriched))
	return err
}

// WriteFile renders the report to path, creating parent directories.
func (r *Renderer) WriteFile(ctx context.Context, path string, valid []sales.Transaction, enriched []sales.EnrichedTransaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(r.Render(ctx, valid, enriched)), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

func title(name string) []string {
	return []string{name, strings.Repeat("-", ruleWidth)}
}

func (r *Renderer) header(valid []sales.Transaction, _ []sales.EnrichedTransaction) []string {
	return []string{
		strings.Repeat("=", ruleWidth),
		"SALES ANALYTICS REPORT",
		"Generated: " + r.now().Format(timeLayout),
		"Records Processed: " + strconv.Itoa(len(valid)),
		strings.Repeat("=", ruleWidth),
	}
}

func (r *Renderer) overall(valid []sales.Transaction, _ []sales.EnrichedTransaction) []string {
	dates := analytics.Dates(valid)
	dateRange := "N/A"
	if !dates.Empty() {
		dateRange = dates.Start + " to " + dates.End
	}

	return append(title("OVERALL SUMMARY"),
		"Total Revenue:      "+Money(analytics.TotalRevenue(valid)),
		"Total Transactions: "+strconv.Itoa(len(valid)),
		"Average Order Value:"+Money(analytics.AverageOrderValue(valid)),
		"Date Range:         "+dateRange,
	)
}

func (r *Renderer) regions(valid []sales.Transaction, _ []sales.EnrichedTransaction) []string {
	lines := append(title("REGION-WISE PERFORMANCE"),
		row(left("Region", 12), right("Sales", 15), right("% of Total", 12), right("Transactions", 14)))
	for _, g := range analytics.RegionWiseSales(valid) {
		lines = append(lines, row(
			left(g.Region, 12),
			right(Money(g.TotalSales), 15),
			right(Percent(g.Percentage), 12),
			count(g.TransactionCount, 14),
		))
	}
	return lines
}

func (r *Renderer) products(valid []sales.Transaction, _ []sales.EnrichedTransaction) []string {
	lines := append(title(fmt.Sprintf("TOP %d PRODUCTS", r.topN)),
		row(left("Rank", 6), left("Product Name", 22), right("Qty Sold", 10), right("Revenue", 12)))
	for i, p := range analytics.TopSellingProducts(valid, r.topN) {
		lines = append(lines, row(
			left(strconv.Itoa(i+1), 6),
			left(truncate(p.Name, nameWidth), 22),
			count(p.Quantity, 10),
			right(Money(p.Revenue), 12),
		))
	}
	return lines
}

func (r *Renderer) customers(valid []sales.Transaction, _ []sales.EnrichedTransaction) []string {
	lines := append(title(fmt.Sprintf("TOP %d CUSTOMERS", r.topN)),
		row(left("Rank", 6), left("Customer ID", 14), right("Total Spent", 14), right("Orders", 10)))

	customers := analytics.CustomerAnalysis(valid)
	if r.topN < len(customers) {
		customers = customers[:max(r.topN, 0)]
	}
	for i, c := range customers {
		lines = append(lines, row(
			left(strconv.Itoa(i+1), 6),
			left(c.CustomerID, 14),
			right(Money(c.TotalSpent), 14),
			count(c.PurchaseCount, 10),
		))
	}
	return lines
}

func (r *Renderer) daily(valid []sales.Transaction, _ []sales.EnrichedTransaction) []string {
	lines := append(title("DAILY SALES TREND"),
		row(left("Date", 12), right("Revenue", 14), right("Transactions", 14), right("Unique Customers", 18)))
	for _, d := range analytics.DailySalesTrend(valid) {
		lines = append(lines, row(
			left(d.Date, 12),
			right(Money(d.Revenue), 14),
			count(d.TransactionCount, 14),
			count(d.UniqueCustomers, 18),
		))
	}
	return lines
}

func (r *Renderer) performance(valid []sales.Transaction, _ []sales.EnrichedTransaction) []string {
	peak := analytics.FindPeakSalesDay(valid)
	peakDate := "N/A"
	if peak.Found {
		peakDate = peak.Date
	}

	lines := append(title("PRODUCT PERFORMANCE ANALYSIS"),
		fmt.Sprintf("Best Selling Day: %s (Revenue %s, Transactions %d)", peakDate, Money(peak.Revenue), peak.TransactionCount),
		"",
		fmt.Sprintf("Low Performing Products (Quantity < %d)", r.lowThreshold),
	)

	low := analytics.LowPerformingProducts(valid, r.lowThreshold)
	if len(low) == 0 {
		lines = append(lines, "None")
	} else {
		lines = append(lines, row(left("Product Name", 22), right("Qty", 6), right("Revenue", 12)))
		for _, p := range low {
			lines = append(lines, row(
				left(truncate(p.Name, nameWidth), 22),
				count(p.Quantity, 6),
				right(Money(p.Revenue), 12),
			))
		}
	}

	lines = append(lines, "",
		"Average Transaction Value by Region",
		row(left("Region", 12), right("Avg Transaction Value", 22)))
	for _, a := range analytics.AverageTransactionValueByRegion(valid) {
		lines = append(lines, row(left(a.Region, 12), right(Money(a.Average), 22)))
	}
	return lines
}

func (r *Renderer) enrichment(_ []sales.Transaction, enriched []sales.EnrichedTransaction) []string {
	s := enrich.Summarize(enriched)

	unmatched := "None"
	if len(s.Unmatched) > 0 {
		unmatched = strings.Join(s.Unmatched, ", ")
	}

	return append(title("API ENRICHMENT SUMMARY"),
		"Total Transactions Enriched: "+strconv.Itoa(s.Total),
		"Successfully Enriched:       "+strconv.Itoa(s.Matched),
		"Success Rate:               "+Percent(s.SuccessRate)+"%",
		"",
		"Products that couldn't be enriched (ProductID):",
		unmatched,
	)
}
