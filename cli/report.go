package cli

import (
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/salesreport/config"
	"github.com/robinvdvleuten/salesreport/pipeline"
	"github.com/robinvdvleuten/salesreport/report"
)

type ReportCmd struct {
	File string `help:"Sales data file (default: input from the config file)." arg:"" optional:"" type:"path"`

	Region    string `help:"Only keep transactions from this region."`
	MinAmount string `help:"Only keep transactions with an amount of at least this value." name:"min-amount"`
	MaxAmount string `help:"Only keep transactions with an amount of at most this value." name:"max-amount"`

	Output         string `help:"Report output file." short:"o" type:"path"`
	EnrichedOutput string `help:"Enriched data output file." name:"enriched-output" type:"path"`
	XLSX           string `help:"Also write the report tables to this XLSX workbook." name:"xlsx" type:"path"`

	Encoding     string `help:"Input encoding (auto, utf-8, latin-1, cp1252)."`
	CatalogURL   string `help:"Product catalog endpoint." name:"catalog-url"`
	NoCatalog    bool   `help:"Skip the product catalog; nothing is enriched." name:"no-catalog"`
	TopN         int    `help:"Number of top products in the report." name:"top-n"`
	LowThreshold int    `help:"Products sold fewer times than this are low performers." name:"low-threshold"`
	Interactive  bool   `help:"Prompt for the filters." short:"i"`
}

// apply overrides the configuration with the flags that were given.
func (cmd *ReportCmd) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Input, cmd.File)
	set(&cfg.Filters.Region, cmd.Region)
	set(&cfg.Filters.MinAmount, cmd.MinAmount)
	set(&cfg.Filters.MaxAmount, cmd.MaxAmount)
	set(&cfg.ReportOutput, cmd.Output)
	set(&cfg.EnrichedOutput, cmd.EnrichedOutput)
	set(&cfg.XLSXOutput, cmd.XLSX)
	set(&cfg.Encoding, cmd.Encoding)
	set(&cfg.Catalog.URL, cmd.CatalogURL)

	if cmd.NoCatalog {
		cfg.Catalog.Disabled = true
	}
	if cmd.TopN > 0 {
		cfg.Report.TopN = cmd.TopN
	}
	if cmd.LowThreshold > 0 {
		cfg.Report.LowThreshold = cmd.LowThreshold
	}
}

func (cmd *ReportCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}
	cmd.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cmd.Interactive {
		if err := promptFilters(&cfg.Filters); err != nil {
			return err
		}
	}

	runCtx, reportTelemetry, err := globals.runContext(cfg, ctx.Stderr, fmt.Sprintf("report %s", filepath.Base(cfg.Input)))
	if err != nil {
		return err
	}
	defer reportTelemetry()

	printInfof(ctx.Stdout, "Reading sales data from %s", pathStyle.Render(cfg.Input))

	result, err := pipeline.Run(runCtx, pipeline.Options{
		Input:          cfg.Input,
		ReportOutput:   cfg.ReportOutput,
		EnrichedOutput: cfg.EnrichedOutput,
		XLSXOutput:     cfg.XLSXOutput,
		Filters:        cfg.FilterOptions(),
		Catalog:        cfg.CatalogFetcher(),
		Loader:         cfg.Loader(),
		Report:         cfg.ReportOptions(),
	})
	if err != nil {
		return reportMissingInput(ctx.Stderr, err)
	}

	summary := result.FilterSummary
	printInfof(ctx.Stdout, "Parsed %d of %d lines (%d skipped)",
		len(result.Batch.Parsed.Transactions), result.Lines, len(result.Batch.Parsed.Skipped))
	printInfof(ctx.Stdout, "Kept %d transactions (%d invalid, %d filtered by region, %d filtered by amount)",
		summary.FinalCount, summary.Invalid, summary.FilteredByRegion, summary.FilteredByAmount)

	if cfg.Catalog.Disabled {
		printInfof(ctx.Stdout, "Product catalog disabled")
	} else {
		printInfof(ctx.Stdout, "Fetched %d products from the catalog", result.Products)
	}

	enriched := result.EnrichSummary
	printInfof(ctx.Stdout, "Enriched %d/%d transactions (%s%%)",
		enriched.Matched, enriched.Total, report.Percent(enriched.SuccessRate))

	printSuccess(ctx.Stdout, fmt.Sprintf("Enriched data written to %s", pathStyle.Render(result.EnrichedPath)))
	printSuccess(ctx.Stdout, fmt.Sprintf("Report written to %s", pathStyle.Render(result.ReportPath)))
	if result.XLSXPath != "" {
		printSuccess(ctx.Stdout, fmt.Sprintf("Workbook written to %s", pathStyle.Render(result.XLSXPath)))
	}

	return nil
}
