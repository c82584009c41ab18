package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/salesreport/catalog"
	"github.com/robinvdvleuten/salesreport/enrich"
	"github.com/robinvdvleuten/salesreport/loader"
	"github.com/robinvdvleuten/salesreport/logger"
	"github.com/robinvdvleuten/salesreport/report"
	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/robinvdvleuten/salesreport/telemetry"
	"github.com/robinvdvleuten/salesreport/validation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const salesData = `TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region
T001|2024-12-01|P101|Laptop|2|45,000|C001|North
T002|2024-12-01|P5|Mouse|-1|500|C002|South
X003|2024-12-02|P3|Keyboard|1|1500|C003|North
T004|2024-12-02|P150|Monitor|1|12000|C003|East
broken|line
`

func intPtr(i int) *int { return &i }

func TestAnalyzeScenario(t *testing.T) {
	lines := []string{
		"T001|2024-12-01|P101|Laptop|2|45,000|C001|North",
		"T002|2024-12-01|P5|Mouse|-1|500|C002|South",
		"X003|2024-12-02|P3|Keyboard|1|1500|C003|North",
	}
	lookup := sales.Lookup{101: {Category: "electronics", Brand: "Acme", Rating: 4.5}}

	batch := Analyze(context.Background(), lines, lookup)

	assert.Equal(t, 1, len(batch.Valid()))
	assert.Equal(t, "T001", batch.Valid()[0].TransactionID)
	assert.Equal(t, 2, batch.Validation.InvalidCount)
	assert.Equal(t, 1, len(batch.Enriched))
	assert.True(t, batch.Enriched[0].APIMatch)
	assert.Equal(t, "electronics", batch.Enriched[0].API.Category)
}

func TestAnalyzeWithFilters(t *testing.T) {
	lines := []string{
		"T001|2024-12-01|P101|Laptop|2|45000|C001|North",
		"T002|2024-12-01|P5|Mouse|3|500|C002|South",
		"T003|2024-12-02|P3|Keyboard|1|1500|C003|north",
	}

	batch := Analyze(context.Background(), lines, nil,
		validation.WithRegion("NORTH"),
		validation.WithMaxAmount(decimal.NewFromInt(2000)),
	)

	assert.Equal(t, validation.Summary{TotalInput: 3, FilteredByRegion: 1, FilteredByAmount: 1, FinalCount: 1}, batch.Validation.Summary)
	assert.Equal(t, "T003", batch.Valid()[0].TransactionID)
	assert.False(t, batch.Enriched[0].APIMatch)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "sales_data.txt")
	assert.NoError(t, os.WriteFile(input, []byte(salesData), 0o644))

	var logs bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(&logs, zerolog.InfoLevel))
	collector := telemetry.NewTimingCollector()
	ctx = telemetry.WithCollector(ctx, collector)

	result, err := Run(ctx, Options{
		Input:          input,
		ReportOutput:   filepath.Join(dir, "output", "sales_report.txt"),
		EnrichedOutput: filepath.Join(dir, "data", "enriched_sales_data.txt"),
		XLSXOutput:     filepath.Join(dir, "output", "sales_report.xlsx"),
		Catalog: catalog.Static{
			{ID: intPtr(1), Category: "laptops", Brand: "Apple", Rating: 4.7},
		},
		Report: []report.Option{report.WithClock(func() time.Time {
			return time.Date(2024, 12, 18, 14, 30, 22, 0, time.UTC)
		})},
	})
	assert.NoError(t, err)

	assert.NotEqual(t, "", result.RunID.String())
	assert.Equal(t, 5, result.Lines)
	assert.Equal(t, 1, result.Products)
	assert.Equal(t, 1, len(result.Batch.Parsed.Skipped))
	assert.Equal(t, validation.Summary{TotalInput: 4, Invalid: 2, FinalCount: 2}, result.FilterSummary)
	assert.Equal(t, 2, result.EnrichSummary.Total)
	assert.Equal(t, 1, result.EnrichSummary.Matched)
	assert.Equal(t, []string{"P150"}, result.EnrichSummary.Unmatched)

	reportText, err := os.ReadFile(result.ReportPath)
	assert.NoError(t, err)
	assert.Contains(t, string(reportText), "Records Processed: 2\n")
	assert.Contains(t, string(reportText), "Total Revenue:      102,000.00\n")
	assert.Contains(t, string(reportText), "Success Rate:               50.00%\n")

	enriched, err := os.ReadFile(result.EnrichedPath)
	assert.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(string(enriched)), "\n")
	assert.Equal(t, 3, len(rows))
	assert.Equal(t, enrich.Header, rows[0])
	assert.Equal(t, "T001|2024-12-01|P101|Laptop|2|45000.0|C001|North|laptops|Apple|4.7|True", rows[1])

	_, err = os.Stat(result.XLSXPath)
	assert.NoError(t, err)

	assert.Contains(t, logs.String(), `"run_id":"`+result.RunID.String()+`"`)

	var timings bytes.Buffer
	collector.Report(&timings, nil)
	assert.Contains(t, timings.String(), "run: ")
	assert.Contains(t, timings.String(), "validate: ")
}

func TestRunWithoutCatalog(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "sales_data.txt")
	assert.NoError(t, os.WriteFile(input, []byte(salesData), 0o644))

	result, err := Run(context.Background(), Options{Input: input})
	assert.NoError(t, err)
	assert.Equal(t, 0, result.EnrichSummary.Matched)
	assert.Equal(t, "", result.ReportPath)
	assert.Equal(t, "", result.EnrichedPath)
}

func TestRunMissingInput(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "sales_report.txt")

	_, err := Run(context.Background(), Options{
		Input:        filepath.Join(t.TempDir(), "missing.txt"),
		ReportOutput: reportPath,
		Loader:       loader.New(),
	})

	var notFound *loader.FileNotFoundError
	assert.True(t, errors.As(err, &notFound))

	_, statErr := os.Stat(reportPath)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}
