// Package config loads the YAML configuration shared by the CLI commands.
//
// Every key is optional; missing keys fall back to the defaults below.
//
//	input: data/sales_data.txt
//	report_output: output/sales_report.txt
//	enriched_output: data/enriched_sales_data.txt
//	xlsx_output: ""
//	encoding: auto
//	log_level: warn
//	catalog:
//	  url: https://dummyjson.com/products
//	  limit: 100
//	  timeout: 100s
//	  retries: 0
//	  disabled: false
//	filters:
//	  region: ""
//	  min_amount: ""
//	  max_amount: ""
//	report:
//	  top_n: 5
//	  low_threshold: 10
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/robinvdvleuten/salesreport/catalog"
	"github.com/robinvdvleuten/salesreport/loader"
	"github.com/robinvdvleuten/salesreport/logger"
	"github.com/robinvdvleuten/salesreport/report"
	"github.com/robinvdvleuten/salesreport/validation"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no configuration file is given explicitly.
const DefaultPath = "salesreport.yaml"

const (
	DefaultInput          = "data/sales_data.txt"
	DefaultReportOutput   = "output/sales_report.txt"
	DefaultEnrichedOutput = "data/enriched_sales_data.txt"
)

// Config holds the complete configuration.
type Config struct {
	Input          string `yaml:"input"`
	ReportOutput   string `yaml:"report_output"`
	EnrichedOutput string `yaml:"enriched_output"`
	XLSXOutput     string `yaml:"xlsx_output"`
	Encoding       string `yaml:"encoding"`
	LogLevel       string `yaml:"log_level"`

	Catalog Catalog `yaml:"catalog"`
	Filters Filters `yaml:"filters"`
	Report  Report  `yaml:"report"`
}

// Catalog configures the product catalog client.
type Catalog struct {
	URL      string        `yaml:"url"`
	Limit    int           `yaml:"limit"`
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`
	Disabled bool          `yaml:"disabled"`
}

// Filters holds the optional business filters. Amounts are kept as text and
// read loosely: a value that is not a number means no bound.
type Filters struct {
	Region    string `yaml:"region"`
	MinAmount string `yaml:"min_amount"`
	MaxAmount string `yaml:"max_amount"`
}

// Report configures the rendered report.
type Report struct {
	TopN         int `yaml:"top_n"`
	LowThreshold int `yaml:"low_threshold"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadOptional reads path when it exists and returns the defaults when it
// does not.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes YAML configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Input == "" {
		cfg.Input = DefaultInput
	}
	if cfg.ReportOutput == "" {
		cfg.ReportOutput = DefaultReportOutput
	}
	if cfg.EnrichedOutput == "" {
		cfg.EnrichedOutput = DefaultEnrichedOutput
	}
	if cfg.Encoding == "" {
		cfg.Encoding = string(loader.Auto)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = logger.DefaultLevel.String()
	}
	if cfg.Catalog.URL == "" {
		cfg.Catalog.URL = catalog.DefaultBaseURL
	}
	if cfg.Catalog.Limit == 0 {
		cfg.Catalog.Limit = catalog.MaxLimit
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = catalog.DefaultTimeout
	}
	if cfg.Report.TopN == 0 {
		cfg.Report.TopN = report.DefaultTopN
	}
	if cfg.Report.LowThreshold == 0 {
		cfg.Report.LowThreshold = report.DefaultLowThreshold
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := loader.ParseEncoding(c.Encoding); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Catalog.Limit < 0 || c.Catalog.Limit > catalog.MaxLimit {
		return fmt.Errorf("catalog.limit must be between 1 and %d, got %d", catalog.MaxLimit, c.Catalog.Limit)
	}
	if c.Catalog.Timeout < 0 {
		return fmt.Errorf("catalog.timeout must not be negative, got %s", c.Catalog.Timeout)
	}
	if c.Catalog.Retries < 0 {
		return fmt.Errorf("catalog.retries must not be negative, got %d", c.Catalog.Retries)
	}
	if c.Report.TopN < 0 {
		return fmt.Errorf("report.top_n must not be negative, got %d", c.Report.TopN)
	}
	return nil
}

// FilterOptions converts the configured filters into validation options.
func (c *Config) FilterOptions() []validation.Option {
	return validation.BoundOptions(c.Filters.Region, c.Filters.MinAmount, c.Filters.MaxAmount)
}

// CatalogFetcher returns the configured catalog client, or nil when the
// catalog is disabled.
func (c *Config) CatalogFetcher() catalog.Fetcher {
	if c.Catalog.Disabled {
		return nil
	}
	return catalog.New(
		catalog.WithBaseURL(c.Catalog.URL),
		catalog.WithLimit(c.Catalog.Limit),
		catalog.WithTimeout(c.Catalog.Timeout),
		catalog.WithRetries(c.Catalog.Retries),
	)
}

// ReportOptions converts the report settings into renderer options.
func (c *Config) ReportOptions() []report.Option {
	return []report.Option{
		report.WithTopN(c.Report.TopN),
		report.WithLowThreshold(c.Report.LowThreshold),
	}
}

// Loader returns a loader for the configured encoding.
func (c *Config) Loader() *loader.Loader {
	enc, err := loader.ParseEncoding(c.Encoding)
	if err != nil {
		enc = loader.Auto
	}
	return loader.New(loader.WithEncoding(enc))
}
