package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/salesreport/web"
)

type WebCmd struct {
	File      string `help:"Sales data file to serve (default: input from the config file)." arg:"" optional:""`
	Port      int    `help:"Port to listen on." default:"8080"`
	NoWatch   bool   `help:"Do not reload when the file changes." name:"no-watch"`
	NoCatalog bool   `help:"Skip the product catalog; nothing is enriched." name:"no-catalog"`
}

func (cmd *WebCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, runCtx, reportTelemetry, err := globals.setup(ctx, "web")
	if err != nil {
		return err
	}
	defer reportTelemetry()

	if cmd.File != "" {
		cfg.Input = cmd.File
	}
	if cmd.NoCatalog {
		cfg.Catalog.Disabled = true
	}

	inputFile, err := filepath.Abs(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if _, err := os.Stat(inputFile); err != nil {
		if os.IsNotExist(err) {
			printError(ctx.Stderr, fmt.Sprintf("sales data file not found: %s", inputFile))
			return NewCommandError(ExitMissingInput)
		}
		return fmt.Errorf("failed to access file: %w", err)
	}

	version := Version
	if version == "" {
		version = "dev"
	}
	commitSHA := CommitSHA
	if commitSHA == "" {
		commitSHA = "local"
	}

	server := web.NewWithVersion(cmd.Port, inputFile, version, commitSHA)
	server.WatchEnabled = !cmd.NoWatch
	server.Catalog = cfg.CatalogFetcher()
	server.Loader = cfg.Loader()
	server.Report = cfg.ReportOptions()

	printInfof(ctx.Stdout, "Starting server on %s:%d", server.Host, cmd.Port)
	printInfof(ctx.Stdout, "Serving sales data: %s", pathStyle.Render(inputFile))

	return server.Start(runCtx)
}
