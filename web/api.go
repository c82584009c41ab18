package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/salesreport/analytics"
	"github.com/robinvdvleuten/salesreport/enrich"
	salesErrors "github.com/robinvdvleuten/salesreport/errors"
	"github.com/robinvdvleuten/salesreport/pipeline"
	"github.com/robinvdvleuten/salesreport/report"
	"github.com/robinvdvleuten/salesreport/validation"
)

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// snapshot is a consistent view of the loaded data for one request.
type snapshot struct {
	runID string
	input string
	lines []string
	batch *pipeline.Batch
}

// filterParams lists the query parameters that narrow the batch.
var filterParams = []string{"region", "min_amount", "max_amount"}

// snapshotFor returns the cached batch, or a freshly filtered one when the
// request carries filter parameters.
func (s *Server) snapshotFor(r *http.Request) snapshot {
	s.mu.RLock()
	snap := snapshot{
		runID: s.runID.String(),
		input: s.inputPath,
		lines: s.lines,
		batch: s.batch,
	}
	lookup := s.lookup
	s.mu.RUnlock()

	query := r.URL.Query()
	for _, param := range filterParams {
		if query.Has(param) {
			opts := validation.BoundOptions(query.Get("region"), query.Get("min_amount"), query.Get("max_amount"))
			snap.batch = pipeline.Analyze(r.Context(), snap.lines, lookup, opts...)
			break
		}
	}
	return snap
}

// intParam reads a non-negative integer query parameter.
func intParam(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// SummaryResponse is the JSON response structure for the summary endpoint.
type SummaryResponse struct {
	RunID             string              `json:"run_id"`
	Input             string              `json:"input"`
	Version           string              `json:"version,omitempty"`
	CommitSHA         string              `json:"commit_sha,omitempty"`
	TotalRevenue      decimal.Decimal     `json:"total_revenue"`
	Transactions      int                 `json:"transactions"`
	AverageOrderValue decimal.Decimal     `json:"average_order_value"`
	DateRange         analytics.DateRange `json:"date_range"`
	Skipped           int                 `json:"skipped"`
	Validation        validation.Summary  `json:"validation"`
	Enrichment        enrich.Summary      `json:"enrichment"`
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshotFor(r)
	valid := snap.batch.Valid()

	writeJSONResponse(w, &SummaryResponse{
		RunID:             snap.runID,
		Input:             snap.input,
		Version:           s.Version,
		CommitSHA:         s.CommitSHA,
		TotalRevenue:      analytics.TotalRevenue(valid),
		Transactions:      len(valid),
		AverageOrderValue: analytics.AverageOrderValue(valid),
		DateRange:         analytics.Dates(valid),
		Skipped:           len(snap.batch.Parsed.Skipped),
		Validation:        snap.batch.Validation.Summary,
		Enrichment:        enrich.Summarize(snap.batch.Enriched),
	})
}

// RegionsResponse is the JSON response structure for the regions endpoint.
type RegionsResponse struct {
	Regions  []analytics.RegionSales   `json:"regions"`
	Averages []analytics.RegionAverage `json:"averages"`
}

func (s *Server) handleGetRegions(w http.ResponseWriter, r *http.Request) {
	valid := s.snapshotFor(r).batch.Valid()
	writeJSONResponse(w, &RegionsResponse{
		Regions:  analytics.RegionWiseSales(valid),
		Averages: analytics.AverageTransactionValueByRegion(valid),
	})
}

// ProductsResponse is the JSON response structure for the product
// endpoints.
type ProductsResponse struct {
	Products []analytics.ProductSales `json:"products"`
}

// handleGetProducts returns the top n products by quantity (?n=, default 5).
func (s *Server) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(r, "n", report.DefaultTopN)
	if !ok {
		http.Error(w, "invalid n: "+r.URL.Query().Get("n"), http.StatusBadRequest)
		return
	}
	valid := s.snapshotFor(r).batch.Valid()
	writeJSONResponse(w, &ProductsResponse{Products: analytics.TopSellingProducts(valid, n)})
}

// handleGetLowPerformers returns products sold fewer than ?threshold= times
// (default 10).
func (s *Server) handleGetLowPerformers(w http.ResponseWriter, r *http.Request) {
	threshold, ok := intParam(r, "threshold", report.DefaultLowThreshold)
	if !ok {
		http.Error(w, "invalid threshold: "+r.URL.Query().Get("threshold"), http.StatusBadRequest)
		return
	}
	valid := s.snapshotFor(r).batch.Valid()
	writeJSONResponse(w, &ProductsResponse{Products: analytics.LowPerformingProducts(valid, threshold)})
}

type CustomersResponse struct {
	Customers []analytics.CustomerStats `json:"customers"`
}

func (s *Server) handleGetCustomers(w http.ResponseWriter, r *http.Request) {
	valid := s.snapshotFor(r).batch.Valid()
	writeJSONResponse(w, &CustomersResponse{Customers: analytics.CustomerAnalysis(valid)})
}

type DailyResponse struct {
	Days []analytics.DailySales `json:"days"`
}

func (s *Server) handleGetDaily(w http.ResponseWriter, r *http.Request) {
	valid := s.snapshotFor(r).batch.Valid()
	writeJSONResponse(w, &DailyResponse{Days: analytics.DailySalesTrend(valid)})
}

func (s *Server) handleGetPeak(w http.ResponseWriter, r *http.Request) {
	valid := s.snapshotFor(r).batch.Valid()
	writeJSONResponse(w, analytics.FindPeakSalesDay(valid))
}

// RejectionsResponse lists every line that was skipped while parsing or
// rejected by validation, in input order.
type RejectionsResponse struct {
	Errors []salesErrors.ErrorJSON `json:"errors"`
}

func (s *Server) handleGetRejections(w http.ResponseWriter, r *http.Request) {
	batch := s.snapshotFor(r).batch
	errs := salesErrors.Collect(batch.Parsed.Skipped, batch.Validation.Rejections)

	formatter := salesErrors.NewJSONFormatter()
	writeJSONResponse(w, &RejectionsResponse{Errors: formatter.FormatAllToSlice(errs)})
}

// EnrichedRow is one enriched transaction; catalog fields are null when
// the product did not match.
type EnrichedRow struct {
	TransactionID string          `json:"transaction_id"`
	Date          string          `json:"date"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CustomerID    string          `json:"customer_id"`
	Region        string          `json:"region"`
	Category      *string         `json:"api_category"`
	Brand         *string         `json:"api_brand"`
	Rating        *float64        `json:"api_rating"`
	Match         bool            `json:"api_match"`
}

type EnrichedResponse struct {
	Transactions []EnrichedRow `json:"transactions"`
}

func (s *Server) handleGetEnriched(w http.ResponseWriter, r *http.Request) {
	batch := s.snapshotFor(r).batch

	rows := make([]EnrichedRow, 0, len(batch.Enriched))
	for _, e := range batch.Enriched {
		row := EnrichedRow{
			TransactionID: e.TransactionID,
			Date:          e.Date,
			ProductID:     e.ProductID,
			ProductName:   e.ProductName,
			Quantity:      e.Quantity,
			UnitPrice:     e.UnitPrice,
			CustomerID:    e.CustomerID,
			Region:        e.Region,
			Match:         e.APIMatch,
		}
		if e.API != nil {
			api := *e.API
			row.Category = &api.Category
			row.Brand = &api.Brand
			row.Rating = &api.Rating
		}
		rows = append(rows, row)
	}

	writeJSONResponse(w, &EnrichedResponse{Transactions: rows})
}

// handleGetReport returns the plain-text report.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	batch := s.snapshotFor(r).batch

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	renderer := report.New(s.Report...)
	if err := renderer.Write(r.Context(), w, batch.Valid(), batch.Enriched); err != nil {
		http.Error(w, "Failed to render report", http.StatusInternalServerError)
	}
}
