package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/salesreport/config"
)

const salesData = `TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region
T001|2024-12-01|P101|Laptop|2|45000|C001|North
T002|2024-12-01|P5|Mouse|3|500|C002|South
T003|2024-12-02|P3|Keyboard|12|1,500|C003|North
`

const badData = `TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region
T001|2024-12-01|P101|Laptop|2|45000|C001|North
X002|2024-12-01|P5|Mouse|3|500|C002|South
broken|line
`

type testCLI struct {
	Commands
}

// run parses args and runs the selected command with captured output.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	var cli testCLI
	parser, err := kong.New(&cli,
		kong.Name("salesreport"),
		kong.Writers(&stdout, &stderr),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.Bind(&cli.Globals),
	)
	assert.NoError(t, err)

	ctx, err := parser.Parse(args)
	assert.NoError(t, err)

	err = ctx.Run()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var cmdErr *CommandError
	assert.True(t, errors.As(err, &cmdErr), "expected CommandError, got %v", err)
	return cmdErr.ExitCode()
}

func TestReportCmd(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "sales_data.txt", salesData)
	reportPath := filepath.Join(dir, "out", "report.txt")
	enrichedPath := filepath.Join(dir, "out", "enriched.txt")

	stdout, _, err := run(t, "report", input,
		"--no-catalog",
		"--output", reportPath,
		"--enriched-output", enrichedPath,
		"--region", "north",
	)
	assert.NoError(t, err)

	assert.Contains(t, stdout, "Kept 2 transactions (0 invalid, 1 filtered by region, 0 filtered by amount)")
	assert.Contains(t, stdout, "Product catalog disabled")
	assert.Contains(t, stdout, "Enriched 0/2 transactions (0.00%)")
	assert.Contains(t, stdout, "✓ Report written to")

	report, err := os.ReadFile(reportPath)
	assert.NoError(t, err)
	assert.Contains(t, string(report), "SALES ANALYTICS REPORT")
	assert.Contains(t, string(report), "Records Processed: 2")

	enriched, err := os.ReadFile(enrichedPath)
	assert.NoError(t, err)
	assert.Contains(t, string(enriched), "T001|2024-12-01|P101|Laptop|2|45000.0|C001|North||||False")
}

func TestReportCmdMissingInput(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.txt")

	_, stderr, err := run(t, "report", filepath.Join(dir, "missing.txt"), "--no-catalog", "--output", reportPath)
	assert.Equal(t, ExitMissingInput, exitCode(t, err))
	assert.Contains(t, stderr, "sales data file not found")

	_, statErr := os.Stat(reportPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReportCmdApply(t *testing.T) {
	cfg := config.Default()
	cmd := &ReportCmd{
		File:      "sales.txt",
		MinAmount: "1,000",
		NoCatalog: true,
		TopN:      3,
	}
	cmd.apply(cfg)

	assert.Equal(t, "sales.txt", cfg.Input)
	assert.Equal(t, "1,000", cfg.Filters.MinAmount)
	assert.Equal(t, "", cfg.Filters.MaxAmount)
	assert.True(t, cfg.Catalog.Disabled)
	assert.Equal(t, 3, cfg.Report.TopN)
	assert.Equal(t, config.DefaultReportOutput, cfg.ReportOutput)
}

func TestCheckCmd(t *testing.T) {
	dir := t.TempDir()

	t.Run("Passes", func(t *testing.T) {
		stdout, _, err := run(t, "check", writeFile(t, dir, "good.txt", salesData))
		assert.NoError(t, err)
		assert.Contains(t, stdout, "✓ Check passed: 3 valid transaction(s) in good.txt")
		assert.Contains(t, stdout, "2 transaction(s)  108,000.00")
		assert.Contains(t, stdout, "1 transaction(s)  1,500.00")
	})

	t.Run("ListsRejections", func(t *testing.T) {
		_, stderr, err := run(t, "check", writeFile(t, dir, "bad.txt", badData))
		assert.Equal(t, ExitRejected, exitCode(t, err))
		assert.Contains(t, stderr, `line 2 (X002): TransactionID "X002" must start with "T"`)
		assert.Contains(t, stderr, "   X002|2024-12-01|P5|Mouse|3|500|C002|South")
		assert.Contains(t, stderr, "line 3: expected 8 fields, found 2")
		assert.Contains(t, stderr, "warning: 1 malformed line(s)")
		assert.Contains(t, stderr, "Rejected: X002")
		assert.Contains(t, stderr, "2 of 3 record(s) rejected")
	})

	t.Run("JSON", func(t *testing.T) {
		stdout, _, err := run(t, "check", "--format", "json", writeFile(t, dir, "bad.json.txt", badData))
		assert.Equal(t, ExitRejected, exitCode(t, err))

		var decoded []map[string]any
		assert.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
		assert.Equal(t, 2, len(decoded))
		assert.Equal(t, "PrefixError", decoded[0]["type"])
		assert.Equal(t, "ParseError", decoded[1]["type"])
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, stderr, err := run(t, "check", filepath.Join(dir, "missing.txt"))
		assert.Equal(t, ExitMissingInput, exitCode(t, err))
		assert.Contains(t, stderr, "sales data file not found")
	})
}

func TestEnrichCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"products":[{"id":1,"title":"Laptop","category":"laptops","brand":"Apple","price":999,"rating":4.7}]}`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	input := writeFile(t, dir, "sales_data.txt", salesData)
	output := filepath.Join(dir, "enriched.txt")

	stdout, _, err := run(t, "enrich", input, "--output", output, "--catalog-url", srv.URL)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Fetched 1 products from the catalog")
	assert.Contains(t, stdout, "Enriched 1/3 transactions (33.33%)")
	assert.Contains(t, stdout, "No catalog match for P3")

	enriched, err := os.ReadFile(output)
	assert.NoError(t, err)
	assert.Contains(t, string(enriched), "T001|2024-12-01|P101|Laptop|2|45000.0|C001|North|laptops|Apple|4.7|True")
}

func TestDoctorParseCmd(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := run(t, "doctor", "parse", writeFile(t, dir, "bad.txt", badData))
	assert.NoError(t, err)
	assert.Contains(t, stdout, "line 1 T001")
	assert.Contains(t, stdout, `TransactionID: "T001"`)
	assert.Contains(t, stdout, `UnitPrice: "45000"`)
	assert.Contains(t, stdout, "skipped line 3: expected 8 fields, found 2")
}

func TestInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()

	_, _, err := run(t, "--log-level", "loud", "check", writeFile(t, dir, "good.txt", salesData))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log level "loud"`)
}

func TestTelemetryReport(t *testing.T) {
	dir := t.TempDir()

	_, stderr, err := run(t, "--telemetry", "check", writeFile(t, dir, "good.txt", salesData))
	assert.NoError(t, err)
	assert.Contains(t, stderr, "check good.txt: ")
	assert.Contains(t, stderr, "parse: ")
}
