package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robinvdvleuten/salesreport/analytics"
	"github.com/robinvdvleuten/salesreport/enrich"
	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/robinvdvleuten/salesreport/telemetry"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook written by WriteXLSX.
const (
	SummarySheet   = "Summary"
	RegionsSheet   = "Regions"
	ProductsSheet  = "Products"
	CustomersSheet = "Customers"
	DailySheet     = "Daily"
)

// Workbook builds a spreadsheet with one sheet per aggregate. Monetary
// values are stored as numbers so they can be summed in the spreadsheet.
func (r *Renderer) Workbook(ctx context.Context, valid []sales.Transaction, enriched []sales.EnrichedTransaction) (*excelize.File, error) {
	_, timer := telemetry.StartTimer(ctx, "render xlsx")
	defer timer.End()

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return nil, err
	}

	dates := analytics.Dates(valid)
	peak := analytics.FindPeakSalesDay(valid)
	s := enrich.Summarize(enriched)

	summary := [][]any{
		{"Generated", r.now().Format(timeLayout)},
		{"Records Processed", len(valid)},
		{"Total Revenue", number(analytics.TotalRevenue(valid))},
		{"Average Order Value", number(analytics.AverageOrderValue(valid))},
		{"First Date", dates.Start},
		{"Last Date", dates.End},
		{"Best Selling Day", peak.Date},
		{"Best Day Revenue", number(peak.Revenue)},
		{"Transactions Enriched", s.Total},
		{"Successfully Enriched", s.Matched},
		{"Success Rate", number(s.SuccessRate)},
	}
	if err := writeRows(f, SummarySheet, []any{"Metric", "Value"}, summary); err != nil {
		return nil, err
	}

	var regions [][]any
	for _, g := range analytics.RegionWiseSales(valid) {
		regions = append(regions, []any{g.Region, number(g.TotalSales), number(g.Percentage), g.TransactionCount})
	}
	if err := writeSheet(f, RegionsSheet, []any{"Region", "Sales", "% of Total", "Transactions"}, regions); err != nil {
		return nil, err
	}

	var products [][]any
	for _, p := range analytics.TopSellingProducts(valid, len(valid)) {
		products = append(products, []any{p.Name, p.Quantity, number(p.Revenue), p.Quantity < r.lowThreshold})
	}
	if err := writeSheet(f, ProductsSheet, []any{"Product Name", "Qty Sold", "Revenue", "Low Performer"}, products); err != nil {
		return nil, err
	}

	var customers [][]any
	for _, c := range analytics.CustomerAnalysis(valid) {
		customers = append(customers, []any{c.CustomerID, number(c.TotalSpent), c.PurchaseCount, number(c.AvgOrderValue), strings.Join(c.ProductsBought, ", ")})
	}
	if err := writeSheet(f, CustomersSheet, []any{"Customer ID", "Total Spent", "Orders", "Avg Order Value", "Products"}, customers); err != nil {
		return nil, err
	}

	var days [][]any
	for _, d := range analytics.DailySalesTrend(valid) {
		days = append(days, []any{d.Date, number(d.Revenue), d.TransactionCount, d.UniqueCustomers})
	}
	if err := writeSheet(f, DailySheet, []any{"Date", "Revenue", "Transactions", "Unique Customers"}, days); err != nil {
		return nil, err
	}

	return f, nil
}

// WriteXLSX writes the workbook to path, creating parent directories.
func (r *Renderer) WriteXLSX(ctx context.Context, path string, valid []sales.Transaction, enriched []sales.EnrichedTransaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := r.Workbook(ctx, valid, enriched)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	return writeRows(f, sheet, header, rows)
}

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	for i, values := range append([][]any{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func number(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
