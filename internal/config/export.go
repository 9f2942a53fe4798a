package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"rangescan/internal/dbx"
	"rangescan/internal/util"
)

type ExportConfig struct {
	ConfigPath string `yaml:"-"`

	DSN     string `yaml:"dsn"`
	Table   string `yaml:"table"`
	PK      string `yaml:"pk"`
	Columns string `yaml:"columns"`
	Where   string `yaml:"where"`
	OutDir  string `yaml:"out"`

	Sizing `yaml:",inline"`

	Workers   int `yaml:"workers"`
	ChunkSize int `yaml:"chunk"`
	Retries   int `yaml:"retries"`

	ThrottleRPS int `yaml:"throttle_rows"`
	MaxExecMS   int `yaml:"max_exec_ms"`

	ProgressInline bool          `yaml:"progress_inline"`
	ProgressEvery  time.Duration `yaml:"progress_every"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	Archive        bool          `yaml:"archive"`
	Header         bool          `yaml:"header"`
}

func defaultExportConfig() ExportConfig {
	return ExportConfig{
		PK:             "id",
		Columns:        "*",
		OutDir:         "./export",
		Workers:        2,
		ChunkSize:      100_000,
		Retries:        3,
		ProgressInline: true,
		ProgressEvery:  time.Second,
		Archive:        true,
		Header:         true,
	}
}

// ParseExportConfig parses the export flags and exits on invalid input.
func ParseExportConfig(args []string) ExportConfig {
	c, err := parseExport(args, flag.ExitOnError)
	if err != nil {
		log.Fatalf("[FATAL] export config: %v", err)
	}
	return c
}

func parseExport(args []string, handling flag.ErrorHandling) (ExportConfig, error) {
	fs := flag.NewFlagSet("export", handling)
	c := defaultExportConfig()

	fs.StringVar(&c.ConfigPath, "config", "", "YAML file with export settings (flags override it)")
	fs.StringVar(&c.DSN, "dsn", c.DSN, "MySQL DSN (required)")
	fs.StringVar(&c.Table, "table", c.Table, "Table name (required)")
	fs.StringVar(&c.PK, "pk", c.PK, "Integer key column the batches are cut on (INT/BIGINT)")
	fs.StringVar(&c.Columns, "columns", c.Columns, "Columns to export (comma-separated)")
	fs.StringVar(&c.Where, "where", c.Where, "Optional WHERE (without 'WHERE')")
	fs.StringVar(&c.OutDir, "out", c.OutDir, "Output directory")
	c.Sizing.register(fs)
	fs.IntVar(&c.Workers, "workers", c.Workers, "Parallel workers (default batch count when no sizing is given)")
	fs.IntVar(&c.ChunkSize, "chunk", c.ChunkSize, "Rows per page and per chunk file")
	fs.IntVar(&c.Retries, "retries", c.Retries, "Retries per batch on transient database errors")
	fs.IntVar(&c.ThrottleRPS, "throttle-rows", c.ThrottleRPS, "Rows/sec per worker (0=off)")
	fs.IntVar(&c.MaxExecMS, "max-exec-ms", c.MaxExecMS, "MAX_EXECUTION_TIME hint (ms)")
	fs.BoolVar(&c.ProgressInline, "progress-inline", c.ProgressInline, "Render progress on one updating line")
	fs.DurationVar(&c.ProgressEvery, "progress-every", c.ProgressEvery, "Progress interval (0=off)")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Serve Prometheus metrics on this address (empty=off)")
	fs.BoolVar(&c.Header, "header", c.Header, "Start every chunk file with a column header row")
	fs.BoolVar(&c.Archive, "archive", c.Archive, "Pack the output directory into <out>.tar.gz and remove it")

	if err := parseWithFile(fs, args, &c.ConfigPath, &c); err != nil {
		return c, err
	}
	c.Sizing.keepFlagMode(fs)

	return c, c.Validate()
}

func (c ExportConfig) Validate() error {
	if strings.TrimSpace(c.DSN) == "" || strings.TrimSpace(c.Table) == "" {
		return errors.New("dsn and table are required")
	}

	if strings.TrimSpace(c.PK) == "" {
		return errors.New("pk is required")
	}

	if c.Workers < 1 || c.Workers > 256 {
		return fmt.Errorf("workers must be between 1 and 256, got %d", c.Workers)
	}

	if c.ChunkSize < 1 || c.ChunkSize > 10_000_000 {
		return fmt.Errorf("chunk size must be between 1 and 10,000,000, got %d", c.ChunkSize)
	}

	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}

	if c.ThrottleRPS < 0 || c.MaxExecMS < 0 {
		return errors.New("throttle-rows and max-exec-ms must not be negative")
	}

	if err := c.Sizing.Validate(); err != nil {
		return err
	}

	if cols := c.ColumnList(); cols != nil && !hasColumn(cols, c.PK) {
		return fmt.Errorf("columns must include the pk column %s", util.Unquote(c.PK))
	}

	if err := dbx.ValidateWhereClause(c.Where); err != nil {
		return fmt.Errorf("invalid where: %w", err)
	}

	return nil
}

// ColumnList returns the configured columns, nil meaning all of them.
func (c ExportConfig) ColumnList() []string {
	cols := strings.TrimSpace(c.Columns)
	if cols == "" || cols == "*" {
		return nil
	}
	return util.SplitCols(cols)
}

func hasColumn(cols []string, name string) bool {
	want := util.Unquote(name)
	for _, col := range cols {
		if strings.EqualFold(util.Unquote(col), want) {
			return true
		}
	}
	return false
}
