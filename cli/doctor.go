package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/salesreport/catalog"
	"github.com/robinvdvleuten/salesreport/output"
	"github.com/robinvdvleuten/salesreport/parser"
)

// DoctorCmd provides doctor utilities for debugging sales data files.
type DoctorCmd struct {
	Parse   ParseCmd   `cmd:"" help:"Show the records parsed from a sales data file."`
	Catalog CatalogCmd `cmd:"" help:"Show the product lookup built from the catalog."`
}

// ParseCmd shows the parsed records of a sales data file.
type ParseCmd struct {
	File FileOrStdin `help:"Sales data filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
}

// parsedRecord is the printable form of a parsed transaction.
type parsedRecord struct {
	Line          int
	TransactionID string
	Date          string
	ProductID     string
	ProductName   string
	Quantity      int
	UnitPrice     string
	CustomerID    string
	Region        string
}

// Run executes the parse command.
func (cmd *ParseCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	cfg, runCtx, reportTelemetry, err := globals.setup(ctx, "doctor parse")
	if err != nil {
		return err
	}
	defer reportTelemetry()

	lines, err := cmd.File.LoadLines(runCtx, cfg.Loader())
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}

	result := parser.Parse(runCtx, lines)
	styles := output.NewStyles(ctx.Stdout)

	for _, tx := range result.Transactions {
		_, _ = fmt.Fprintf(ctx.Stdout, "%s %s\n", styles.Dim(fmt.Sprintf("line %d", tx.Line)), styles.Identifier(tx.TransactionID))
		record := parsedRecord{
			Line:          tx.Line,
			TransactionID: tx.TransactionID,
			Date:          tx.Date,
			ProductID:     tx.ProductID,
			ProductName:   tx.ProductName,
			Quantity:      tx.Quantity,
			UnitPrice:     tx.UnitPrice.String(),
			CustomerID:    tx.CustomerID,
			Region:        tx.Region,
		}
		_, _ = fmt.Fprintln(ctx.Stdout, repr.String(record, repr.Indent("  ")))
	}

	for _, skipped := range result.Skipped {
		_, _ = fmt.Fprintf(ctx.Stdout, "%s %s\n", styles.Warning("skipped"), skipped.Error())
	}

	return nil
}

// CatalogCmd fetches the product catalog and prints the lookup.
type CatalogCmd struct {
	URL string `help:"Product catalog endpoint." name:"url"`
}

// Run executes the catalog command.
func (cmd *CatalogCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, runCtx, reportTelemetry, err := globals.setup(ctx, "doctor catalog")
	if err != nil {
		return err
	}
	defer reportTelemetry()

	if cmd.URL != "" {
		cfg.Catalog.URL = cmd.URL
	}
	cfg.Catalog.Disabled = false

	lookup := catalog.Load(runCtx, cfg.CatalogFetcher())
	_, _ = fmt.Fprintln(ctx.Stdout, repr.String(lookup, repr.Indent("  ")))
	printInfof(ctx.Stdout, "%d products in lookup", len(lookup))

	return nil
}
