// Package pipeline wires the sales reporting stages together:
//
//	load → parse → validate/filter → enrich → render
//
// Analyze runs the in-memory stages over lines that are already loaded and
// is what the web server uses. Run performs a complete batch run from an
// input file to the report and enriched data files.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/robinvdvleuten/salesreport/catalog"
	"github.com/robinvdvleuten/salesreport/enrich"
	"github.com/robinvdvleuten/salesreport/loader"
	"github.com/robinvdvleuten/salesreport/logger"
	"github.com/robinvdvleuten/salesreport/parser"
	"github.com/robinvdvleuten/salesreport/report"
	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/robinvdvleuten/salesreport/telemetry"
	"github.com/robinvdvleuten/salesreport/validation"
)

// Batch holds the output of every in-memory stage for one set of lines.
type Batch struct {
	Parsed     *parser.Result
	Validation *validation.Result
	Enriched   []sales.EnrichedTransaction
}

// Valid returns the transactions that passed validation and the filters.
func (b *Batch) Valid() []sales.Transaction {
	return b.Validation.Valid
}

// Analyze parses, validates and enriches lines.
func Analyze(ctx context.Context, lines []string, lookup sales.Lookup, opts ...validation.Option) *Batch {
	parsed := parser.Parse(ctx, lines)
	validated := validation.ValidateAndFilter(ctx, parsed.Transactions, opts...)
	return &Batch{
		Parsed:     parsed,
		Validation: validated,
		Enriched:   enrich.Enrich(ctx, validated.Valid, lookup),
	}
}

// Options configures a Run.
type Options struct {
	Input          string
	ReportOutput   string
	EnrichedOutput string

	// XLSXOutput, when set, also writes the aggregates as a workbook.
	XLSXOutput string

	Filters []validation.Option

	// Catalog supplies product metadata. A nil Catalog enriches nothing.
	Catalog catalog.Fetcher

	Loader *loader.Loader
	Report []report.Option
}

// Result describes a completed Run.
type Result struct {
	RunID         uuid.UUID
	Lines         int
	Batch         *Batch
	Products      int
	ReportPath    string
	EnrichedPath  string
	XLSXPath      string
	EnrichSummary enrich.Summary
	FilterSummary validation.Summary
}

// Run executes the whole pipeline. Only a missing or unreadable input and
// failures writing outputs are returned as errors; bad records and catalog
// failures are reflected in the result counts.
func Run(ctx context.Context, opts Options) (*Result, error) {
	runID := uuid.New()
	log := logger.FromContext(ctx).With().Str("run_id", runID.String()).Logger()
	ctx = logger.WithContext(ctx, log)

	ctx, timer := telemetry.StartTimer(ctx, "run")
	defer timer.End()

	ldr := opts.Loader
	if ldr == nil {
		ldr = loader.New()
	}
	lines, err := ldr.Load(ctx, opts.Input)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("lines", len(lines)).Str("input", opts.Input).Msg("loaded sales data")

	var products []catalog.Product
	if opts.Catalog != nil {
		products = opts.Catalog.FetchAll(ctx)
	}
	lookup := catalog.Mapping(products)

	batch := Analyze(ctx, lines, lookup, opts.Filters...)
	summary := batch.Validation.Summary
	log.Info().
		Int("parsed", len(batch.Parsed.Transactions)).
		Int("skipped", len(batch.Parsed.Skipped)).
		Int("invalid", summary.Invalid).
		Int("filtered_by_region", summary.FilteredByRegion).
		Int("filtered_by_amount", summary.FilteredByAmount).
		Int("valid", summary.FinalCount).
		Msg("validated transactions")

	result := &Result{
		RunID:         runID,
		Lines:         len(lines),
		Batch:         batch,
		Products:      len(products),
		EnrichSummary: enrich.Summarize(batch.Enriched),
		FilterSummary: summary,
	}

	if opts.EnrichedOutput != "" {
		if err := enrich.WriteFile(opts.EnrichedOutput, batch.Enriched); err != nil {
			return nil, err
		}
		result.EnrichedPath = opts.EnrichedOutput
	}

	renderer := report.New(opts.Report...)
	if opts.ReportOutput != "" {
		if err := renderer.WriteFile(ctx, opts.ReportOutput, batch.Valid(), batch.Enriched); err != nil {
			return nil, err
		}
		result.ReportPath = opts.ReportOutput
	}
	if opts.XLSXOutput != "" {
		if err := renderer.WriteXLSX(ctx, opts.XLSXOutput, batch.Valid(), batch.Enriched); err != nil {
			return nil, err
		}
		result.XLSXPath = opts.XLSXOutput
	}

	log.Info().
		Int("matched", result.EnrichSummary.Matched).
		Str("report", result.ReportPath).
		Str("enriched", result.EnrichedPath).
		Msg("pipeline finished")
	return result, nil
}
