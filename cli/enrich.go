package cli

import (
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/salesreport/pipeline"
	"github.com/robinvdvleuten/salesreport/report"
)

type EnrichCmd struct {
	File       string `help:"Sales data file (default: input from the config file)." arg:"" optional:"" type:"path"`
	Output     string `help:"Enriched data output file." short:"o" type:"path"`
	CatalogURL string `help:"Product catalog endpoint." name:"catalog-url"`
}

func (cmd *EnrichCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}
	if cmd.File != "" {
		cfg.Input = cmd.File
	}
	if cmd.Output != "" {
		cfg.EnrichedOutput = cmd.Output
	}
	if cmd.CatalogURL != "" {
		cfg.Catalog.URL = cmd.CatalogURL
	}
	cfg.Catalog.Disabled = false

	runCtx, reportTelemetry, err := globals.runContext(cfg, ctx.Stderr, fmt.Sprintf("enrich %s", filepath.Base(cfg.Input)))
	if err != nil {
		return err
	}
	defer reportTelemetry()

	result, err := pipeline.Run(runCtx, pipeline.Options{
		Input:          cfg.Input,
		EnrichedOutput: cfg.EnrichedOutput,
		Filters:        cfg.FilterOptions(),
		Catalog:        cfg.CatalogFetcher(),
		Loader:         cfg.Loader(),
	})
	if err != nil {
		return reportMissingInput(ctx.Stderr, err)
	}

	summary := result.EnrichSummary
	printInfof(ctx.Stdout, "Fetched %d products from the catalog", result.Products)
	printInfof(ctx.Stdout, "Enriched %d/%d transactions (%s%%)",
		summary.Matched, summary.Total, report.Percent(summary.SuccessRate))
	for _, id := range summary.Unmatched {
		printInfof(ctx.Stdout, "No catalog match for %s", id)
	}
	printSuccess(ctx.Stdout, fmt.Sprintf("Enriched data written to %s", pathStyle.Render(result.EnrichedPath)))

	return nil
}
