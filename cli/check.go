package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/salesreport/analytics"
	salesErrors "github.com/robinvdvleuten/salesreport/errors"
	"github.com/robinvdvleuten/salesreport/output"
	"github.com/robinvdvleuten/salesreport/parser"
	"github.com/robinvdvleuten/salesreport/report"
	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/robinvdvleuten/salesreport/validation"
)

type CheckCmd struct {
	File     FileOrStdin `help:"Sales data filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Encoding string      `help:"Input encoding (auto, utf-8, latin-1, cp1252)."`
	Format   string      `help:"Output format for rejected records." enum:"text,json" default:"text"`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	cfg, runCtx, reportTelemetry, err := globals.setup(ctx, fmt.Sprintf("check %s", filepath.Base(cmd.File.Filename)))
	if err != nil {
		return err
	}
	defer reportTelemetry()

	if cmd.Encoding != "" {
		cfg.Encoding = cmd.Encoding
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	lines, err := cmd.File.LoadLines(runCtx, cfg.Loader())
	if err != nil {
		return reportMissingInput(ctx.Stderr, err)
	}

	parsed := parser.Parse(runCtx, lines)
	validated := validation.ValidateAndFilter(runCtx, parsed.Transactions)
	errs := salesErrors.Collect(parsed.Skipped, validated.Rejections)

	if len(errs) > 0 {
		if cmd.Format == "json" {
			_, _ = fmt.Fprintln(ctx.Stdout, salesErrors.NewJSONFormatter().FormatAll(errs))
		} else {
			renderer := NewErrorRenderer(lines)
			_, _ = fmt.Fprintln(ctx.Stderr, renderer.RenderAll(errs))
			_, _ = fmt.Fprintln(ctx.Stderr)
			printRejectionSummary(ctx.Stderr, output.NewStyles(ctx.Stderr), parsed.Skipped, validated.Rejections)
		}

		printError(ctx.Stderr, fmt.Sprintf("%d of %d record(s) rejected", len(errs), len(lines)))
		return NewCommandError(ExitRejected)
	}

	styles := output.NewStyles(ctx.Stdout)
	printSuccess(ctx.Stdout, fmt.Sprintf("Check passed: %d valid transaction(s) in %s",
		validated.Summary.FinalCount, styles.FilePath(filepath.Base(cmd.File.Filename))))
	printRegionBreakdown(ctx.Stdout, styles, validated.Valid)

	return nil
}

// printRejectionSummary lists the malformed line count and the ids of the
// rejected transactions.
func printRejectionSummary(w io.Writer, styles *output.Styles, skipped []*parser.ParseError, rejections []validation.Rejection) {
	if len(skipped) > 0 {
		_, _ = fmt.Fprintf(w, "%s %d malformed line(s)\n", styles.Warning("warning:"), len(skipped))
	}
	if len(rejections) == 0 {
		return
	}

	ids := make([]string, 0, len(rejections))
	for _, r := range rejections {
		if id := r.GetTransactionID(); id != "" {
			ids = append(ids, styles.Identifier(id))
		}
	}
	if len(ids) > 0 {
		_, _ = fmt.Fprintf(w, "Rejected: %s\n", strings.Join(ids, ", "))
	}
}

// printRegionBreakdown shows the transaction count and revenue per region.
func printRegionBreakdown(w io.Writer, styles *output.Styles, valid []sales.Transaction) {
	for _, r := range analytics.RegionWiseSales(valid) {
		_, _ = fmt.Fprintf(w, "  %s %4d transaction(s)  %s\n",
			styles.Region(fmt.Sprintf("%-10s", r.Region)),
			r.TransactionCount,
			styles.Amount(report.Money(r.TotalSales)),
		)
	}
}
