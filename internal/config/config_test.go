package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rangescan/internal/ranger"
)

const testDSN = "user:pass@tcp(host:3306)/db"

func writeFile(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rangescan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestParseExportDefaults(t *testing.T) {
	c, err := parseExport([]string{"-dsn", testDSN, "-table", "log"}, flag.ContinueOnError)
	require.NoError(t, err)

	require.Equal(t, "id", c.PK)
	require.Equal(t, "*", c.Columns)
	require.Equal(t, "./export", c.OutDir)
	require.Equal(t, 2, c.Workers)
	require.Equal(t, 100_000, c.ChunkSize)
	require.Equal(t, 3, c.Retries)
	require.Equal(t, time.Second, c.ProgressEvery)
	require.True(t, c.Archive)
	require.True(t, c.Header)
	require.False(t, c.Sizing.IsSet())
	require.Nil(t, c.ColumnList())
}

func TestParseExportFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, c ExportConfig)
	}{
		{
			name: "batch size",
			args: []string{"-batch-size", "5000"},
			check: func(t *testing.T, c ExportConfig) {
				require.Equal(t, int64(5000), c.BatchSize)
				require.Zero(t, c.BatchCount)
			},
		},
		{
			name: "batch count and workers",
			args: []string{"-batch-count", "64", "-workers", "8"},
			check: func(t *testing.T, c ExportConfig) {
				require.Equal(t, int64(64), c.BatchCount)
				require.Equal(t, 8, c.Workers)
			},
		},
		{
			name: "columns",
			args: []string{"-columns", "id, name ,value"},
			check: func(t *testing.T, c ExportConfig) {
				require.Equal(t, []string{"id", "name", "value"}, c.ColumnList())
			},
		},
		{
			name: "quoted pk in columns",
			args: []string{"-pk", "`Log_ID`", "-columns", "log_id,`msg`"},
			check: func(t *testing.T, c ExportConfig) {
				require.Equal(t, []string{"log_id", "`msg`"}, c.ColumnList())
			},
		},
		{
			name: "archive off",
			args: []string{"-archive=false", "-progress-every", "0"},
			check: func(t *testing.T, c ExportConfig) {
				require.False(t, c.Archive)
				require.Zero(t, c.ProgressEvery)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-dsn", testDSN, "-table", "log"}, tt.args...)
			c, err := parseExport(args, flag.ContinueOnError)
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestParseExportInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing dsn", args: []string{"-table", "log"}},
		{name: "missing table", args: []string{"-dsn", testDSN}},
		{name: "both sizings", args: []string{"-dsn", testDSN, "-table", "log", "-batch-size", "10", "-batch-count", "2"}},
		{name: "negative batch size", args: []string{"-dsn", testDSN, "-table", "log", "-batch-size", "-1"}},
		{name: "zero workers", args: []string{"-dsn", testDSN, "-table", "log", "-workers", "0"}},
		{name: "chunk too large", args: []string{"-dsn", testDSN, "-table", "log", "-chunk", "20000000"}},
		{name: "negative retries", args: []string{"-dsn", testDSN, "-table", "log", "-retries", "-1"}},
		{name: "sql injection", args: []string{"-dsn", testDSN, "-table", "log", "-where", "id > 1; DROP TABLE log"}},
		{name: "unknown flag", args: []string{"-dsn", testDSN, "-table", "log", "-nope"}},
		{name: "columns without pk", args: []string{"-dsn", testDSN, "-table", "log", "-columns", "name,value"}},
		{name: "columns without custom pk", args: []string{"-dsn", testDSN, "-table", "log", "-pk", "log_id", "-columns", "id,name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseExport(tt.args, flag.ContinueOnError)
			require.Error(t, err)
		})
	}
}

func TestParseExportConfigFile(t *testing.T) {
	path := writeFile(t, `
dsn: "user:pass@tcp(host:3306)/db"
table: orders
pk: order_id
batch_count: 32
workers: 6
progress_every: 5s
archive: false
`)

	c, err := parseExport([]string{"-config", path, "-workers", "3"}, flag.ContinueOnError)
	require.NoError(t, err)

	require.Equal(t, testDSN, c.DSN)
	require.Equal(t, "orders", c.Table)
	require.Equal(t, "order_id", c.PK)
	require.Equal(t, int64(32), c.BatchCount)
	require.Equal(t, 3, c.Workers, "flag must override the file")
	require.Equal(t, 5*time.Second, c.ProgressEvery)
	require.False(t, c.Archive)
	require.Equal(t, 100_000, c.ChunkSize, "unset keys keep defaults")
}

func TestFlagSizingOverridesFile(t *testing.T) {
	path := writeFile(t, "dsn: \"user:pass@tcp(host:3306)/db\"\ntable: orders\nbatch_count: 32\n")

	c, err := parseExport([]string{"-config", path, "-batch-size", "1000"}, flag.ContinueOnError)
	require.NoError(t, err)
	require.Equal(t, int64(1000), c.BatchSize)
	require.Zero(t, c.BatchCount)

	c, err = parseExport([]string{"-config", path, "-batch-count", "8"}, flag.ContinueOnError)
	require.NoError(t, err)
	require.Equal(t, int64(8), c.BatchCount)
	require.Zero(t, c.BatchSize)

	_, err = parseExport([]string{"-config", path, "-batch-size", "10", "-batch-count", "2"}, flag.ContinueOnError)
	require.ErrorIs(t, err, errSizingConflict)

	planPath := writeFile(t, "min: 0\nmax: 100\nbatch_size: 5\n")
	pc, err := parsePlan([]string{"-config", planPath, "-batch-count", "4"}, flag.ContinueOnError)
	require.NoError(t, err)
	require.Equal(t, int64(4), pc.BatchCount)
	require.Zero(t, pc.BatchSize)
}

func TestParseExportConfigFileErrors(t *testing.T) {
	_, err := parseExport([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, flag.ContinueOnError)
	require.Error(t, err)

	path := writeFile(t, "dsn: x\nunknown_key: 1\n")
	_, err = parseExport([]string{"-config", path}, flag.ContinueOnError)
	require.Error(t, err)
}

func TestParsePlan(t *testing.T) {
	c, err := parsePlan([]string{"-min", "-5", "-max", "11", "-batch-count", "5"}, flag.ContinueOnError)
	require.NoError(t, err)
	require.Equal(t, int64(-5), c.Min)
	require.Equal(t, int64(11), c.Max)
	require.Equal(t, "text", c.Format)

	p, err := c.Partition(c.Min, c.Max, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(5), p.NumBatches())

	_, err = parsePlan([]string{"-min", "0", "-max", "10"}, flag.ContinueOnError)
	require.Error(t, err, "sizing is required")

	_, err = parsePlan([]string{"-batch-size", "3", "-format", "json"}, flag.ContinueOnError)
	require.Error(t, err)

	path := writeFile(t, "min: 0\nmax: 2\nbatch_size: 5\nformat: yaml\n")
	c, err = parsePlan([]string{"-config", path}, flag.ContinueOnError)
	require.NoError(t, err)
	require.Equal(t, int64(5), c.BatchSize)
	require.Equal(t, "yaml", c.Format)
}

func TestSizingPartition(t *testing.T) {
	tests := []struct {
		name     string
		sizing   Sizing
		min, max int64
		fallback int64
		expected []ranger.Range
		errIs    error
	}{
		{
			name:     "batch size",
			sizing:   Sizing{BatchSize: 3},
			min:      -5,
			max:      9,
			expected: []ranger.Range{{From: -5, To: -3}, {From: -2, To: 0}, {From: 1, To: 3}, {From: 4, To: 6}, {From: 7, To: 9}},
		},
		{
			name:     "batch count",
			sizing:   Sizing{BatchCount: 5},
			min:      0,
			max:      2,
			expected: []ranger.Range{{From: 0, To: 0}, {From: 1, To: 1}, {From: 2, To: 2}},
		},
		{
			name:     "fallback count",
			min:      1,
			max:      10,
			fallback: 2,
			expected: []ranger.Range{{From: 1, To: 5}, {From: 6, To: 10}},
		},
		{
			name:   "inverted interval",
			sizing: Sizing{BatchCount: 2},
			min:    10,
			max:    1,
			errIs:  ranger.ErrInvalidInterval,
		},
		{
			name:   "negative size",
			sizing: Sizing{BatchSize: -4},
			min:    1,
			max:    10,
			errIs:  ranger.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.sizing.Partition(tt.min, tt.max, tt.fallback)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)

			batches, err := p.Batches()
			require.NoError(t, err)
			require.Equal(t, tt.expected, batches)
		})
	}
}
