package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/salesreport/config"
	"github.com/robinvdvleuten/salesreport/logger"
	"github.com/robinvdvleuten/salesreport/output"
	"github.com/robinvdvleuten/salesreport/telemetry"
)

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	LogLevel  string `help:"Log level (debug, info, warn, error). Overrides the config file." name:"log-level"`
	Config    string `help:"Configuration file (default: salesreport.yaml when present)." type:"path"`
}

type Commands struct {
	Globals

	Report ReportCmd `cmd:"" help:"Analyze a sales data file and write the report."`
	Check  CheckCmd  `cmd:"" help:"Parse and validate a sales data file, listing rejected records."`
	Enrich EnrichCmd `cmd:"" help:"Enrich sales data with product catalog information."`
	Doctor DoctorCmd `cmd:"" help:"Doctor utilities for debugging sales data files."`
	Web    WebCmd    `cmd:"" help:"Start a web server."`
}

// loadConfig reads the configuration named by --config, or the default file
// when it exists.
func (g *Globals) loadConfig() (*config.Config, error) {
	if g.Config != "" {
		return config.Load(g.Config)
	}
	return config.LoadOptional(config.DefaultPath)
}

// runContext builds the context every command runs in: a logger at the
// configured level and, with --telemetry, a timing collector whose root
// timer is named after the command. The returned function prints the
// timing tree once.
func (g *Globals) runContext(cfg *config.Config, stderr io.Writer, name string) (context.Context, func(), error) {
	levelName := cfg.LogLevel
	if g.LogLevel != "" {
		levelName = g.LogLevel
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}

	ctx := logger.WithContext(context.Background(), logger.New(level))

	if !g.Telemetry {
		return ctx, func() {}, nil
	}

	collector := telemetry.NewTimingCollector()
	ctx = telemetry.WithCollector(ctx, collector)
	ctx, timer := telemetry.StartTimer(ctx, name)

	var once sync.Once
	report := func() {
		once.Do(func() {
			timer.End()
			_, _ = fmt.Fprintln(stderr)
			collector.Report(stderr, output.NewStyles(stderr))
		})
	}
	return ctx, report, nil
}

// setup loads the configuration and builds the run context.
func (g *Globals) setup(ctx *kong.Context, name string) (*config.Config, context.Context, func(), error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	runCtx, report, err := g.runContext(cfg, ctx.Stderr, name)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, runCtx, report, nil
}
