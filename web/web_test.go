package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/salesreport/analytics"
	"github.com/robinvdvleuten/salesreport/catalog"
	"github.com/robinvdvleuten/salesreport/report"
)

const testData = `TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region
T001|2024-12-01|P101|Laptop|2|45000|C001|North
T002|2024-12-01|P5|Mouse|3|500|C002|South
T003|2024-12-02|P3|Keyboard|12|1,500|C003|North
X004|2024-12-02|P4|Cable|1|100|C004|East
broken|line
`

func newTestServer(t *testing.T, content string) (*Server, *http.ServeMux) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sales_data.txt")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	id := 1
	server := NewWithVersion(8080, path, "1.0.0", "abc123")
	server.Catalog = catalog.Static{{ID: &id, Title: "Laptop", Category: "laptops", Brand: "Apple", Rating: 4.7}}
	server.Report = []report.Option{report.WithClock(func() time.Time {
		return time.Date(2024, 12, 18, 14, 30, 22, 0, time.UTC)
	})}

	server.loadCatalog(context.Background())
	assert.NoError(t, server.reload(context.Background()))

	return server, server.setupRouter()
}

func get(t *testing.T, mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestAPISummary(t *testing.T) {
	server, mux := newTestServer(t, testData)

	t.Run("Unfiltered", func(t *testing.T) {
		rec := get(t, mux, "/api/summary")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		response := decode[SummaryResponse](t, rec)
		assert.Equal(t, server.runID.String(), response.RunID)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "109500", response.TotalRevenue.String())
		assert.Equal(t, 3, response.Transactions)
		assert.Equal(t, "36500", response.AverageOrderValue.String())
		assert.Equal(t, analytics.DateRange{Start: "2024-12-01", End: "2024-12-02"}, response.DateRange)
		assert.Equal(t, 1, response.Skipped)
		assert.Equal(t, 4, response.Validation.TotalInput)
		assert.Equal(t, 1, response.Validation.Invalid)
		assert.Equal(t, 3, response.Validation.FinalCount)
		assert.Equal(t, 1, response.Enrichment.Matched)
		assert.Equal(t, []string{"P3", "P5"}, response.Enrichment.Unmatched)
	})

	t.Run("FilteredByRegion", func(t *testing.T) {
		response := decode[SummaryResponse](t, get(t, mux, "/api/summary?region=north"))

		assert.Equal(t, "108000", response.TotalRevenue.String())
		assert.Equal(t, 2, response.Transactions)
		assert.Equal(t, 1, response.Validation.FilteredByRegion)
	})

	t.Run("FilteredByAmount", func(t *testing.T) {
		response := decode[SummaryResponse](t, get(t, mux, "/api/summary?min_amount=2,000&max_amount=20000"))

		assert.Equal(t, "18000", response.TotalRevenue.String())
		assert.Equal(t, 2, response.Validation.FilteredByAmount)
	})

	t.Run("NonNumericBoundIsIgnored", func(t *testing.T) {
		response := decode[SummaryResponse](t, get(t, mux, "/api/summary?min_amount=lots"))

		assert.Equal(t, 3, response.Transactions)
	})
}

func TestAPIRegions(t *testing.T) {
	_, mux := newTestServer(t, testData)

	response := decode[RegionsResponse](t, get(t, mux, "/api/regions"))

	assert.Equal(t, 2, len(response.Regions))
	assert.Equal(t, "North", response.Regions[0].Region)
	assert.Equal(t, "108000", response.Regions[0].TotalSales.String())
	assert.Equal(t, "98.63", response.Regions[0].Percentage.String())
	assert.Equal(t, "South", response.Regions[1].Region)
	assert.Equal(t, 2, len(response.Averages))
}

func TestAPIProducts(t *testing.T) {
	_, mux := newTestServer(t, testData)

	t.Run("Top", func(t *testing.T) {
		response := decode[ProductsResponse](t, get(t, mux, "/api/products?n=1"))

		assert.Equal(t, 1, len(response.Products))
		assert.Equal(t, "Keyboard", response.Products[0].Name)
		assert.Equal(t, 12, response.Products[0].Quantity)
	})

	t.Run("InvalidN", func(t *testing.T) {
		rec := get(t, mux, "/api/products?n=many")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("LowPerformers", func(t *testing.T) {
		response := decode[ProductsResponse](t, get(t, mux, "/api/low-performers?threshold=5"))

		var names []string
		for _, p := range response.Products {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"Laptop", "Mouse"}, names)
	})

	t.Run("InvalidThreshold", func(t *testing.T) {
		rec := get(t, mux, "/api/low-performers?threshold=-1")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPICustomersDailyPeak(t *testing.T) {
	_, mux := newTestServer(t, testData)

	customers := decode[CustomersResponse](t, get(t, mux, "/api/customers"))
	assert.Equal(t, 3, len(customers.Customers))
	assert.Equal(t, "C001", customers.Customers[0].CustomerID)

	daily := decode[DailyResponse](t, get(t, mux, "/api/daily"))
	assert.Equal(t, 2, len(daily.Days))
	assert.Equal(t, "2024-12-01", daily.Days[0].Date)
	assert.Equal(t, "91500", daily.Days[0].Revenue.String())

	peak := decode[analytics.PeakDay](t, get(t, mux, "/api/peak"))
	assert.True(t, peak.Found)
	assert.Equal(t, "2024-12-01", peak.Date)
	assert.Equal(t, 2, peak.TransactionCount)
}

func TestAPIRejections(t *testing.T) {
	_, mux := newTestServer(t, testData)

	rec := get(t, mux, "/api/rejections")
	assert.Equal(t, http.StatusOK, rec.Code)

	response := decode[RejectionsResponse](t, rec)
	assert.Equal(t, 2, len(response.Errors))

	assert.Equal(t, "PrefixError", response.Errors[0].Type)
	assert.Equal(t, 4, response.Errors[0].Line)
	assert.Equal(t, "X004", response.Errors[0].Details["transaction_id"])

	assert.Equal(t, "ParseError", response.Errors[1].Type)
	assert.Equal(t, 5, response.Errors[1].Line)
}

func TestAPIEnriched(t *testing.T) {
	_, mux := newTestServer(t, testData)

	response := decode[EnrichedResponse](t, get(t, mux, "/api/enriched"))
	assert.Equal(t, 3, len(response.Transactions))

	laptop := response.Transactions[0]
	assert.True(t, laptop.Match)
	assert.Equal(t, "Apple", *laptop.Brand)
	assert.Equal(t, 4.7, *laptop.Rating)

	mouse := response.Transactions[1]
	assert.False(t, mouse.Match)
	assert.True(t, mouse.Brand == nil)
}

func TestAPIReport(t *testing.T) {
	_, mux := newTestServer(t, testData)

	rec := get(t, mux, "/api/report")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, strings.Repeat("=", 45)+"\nSALES ANALYTICS REPORT\n"))
	assert.Contains(t, body, "Generated: 2024-12-18 14:30:22")
	assert.Contains(t, body, "Records Processed: 3")
}

func TestReloadRebuildsBatch(t *testing.T) {
	server, mux := newTestServer(t, testData)
	before := server.runID

	appended := testData + "T005|2024-12-03|P101|Laptop|1|45000|C005|West\n"
	assert.NoError(t, os.WriteFile(server.inputPath, []byte(appended), 0o600))
	assert.NoError(t, server.reload(context.Background()))

	response := decode[SummaryResponse](t, get(t, mux, "/api/summary"))
	assert.Equal(t, 4, response.Transactions)
	assert.Equal(t, "154500", response.TotalRevenue.String())
	assert.NotEqual(t, before.String(), response.RunID)
}

func TestReloadMissingFileKeepsBatch(t *testing.T) {
	server, mux := newTestServer(t, testData)

	assert.NoError(t, os.Remove(server.inputPath))
	assert.Error(t, server.reload(context.Background()))

	response := decode[SummaryResponse](t, get(t, mux, "/api/summary"))
	assert.Equal(t, 3, response.Transactions)
}

func TestBroadcast(t *testing.T) {
	server := New(8080, "")

	client := make(chan string, 1)
	full := make(chan string)
	server.sseClients[client] = struct{}{}
	server.sseClients[full] = struct{}{}

	server.broadcast("reload")

	assert.Equal(t, "reload", <-client)
}

func TestStartRequiresInputFile(t *testing.T) {
	server := New(8080, "")

	err := server.Start(context.Background())
	assert.EqualError(t, err, "input file is required")
}
