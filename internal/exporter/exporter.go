// Package exporter scans the batches of a partitioned key range in parallel
// and writes the rows to gzip CSV chunks.
package exporter

import (
	"context"
	"database/sql"
	"fmt"

	"rangescan/internal/config"
	"rangescan/internal/dbx"
	"rangescan/internal/filesink"
	"rangescan/internal/metrics"
	"rangescan/internal/ranger"
)

// Run exports every batch with cfg.Workers concurrent workers. Each worker
// owns one sink, so files never interleave rows from two workers.
func Run(
	ctx context.Context,
	db *sql.DB,
	cfg config.ExportConfig,
	batches []ranger.Range,
	stats *Stats,
	m metrics.Collector,
) error {
	if m == nil {
		m = metrics.Nop{}
	}

	workers := cfg.Workers
	if workers > len(batches) {
		workers = len(batches)
	}
	if workers < 1 {
		return nil
	}

	query := dbx.BuildSelectByRange(cfg.Table, cfg.ColumnList(), cfg.PK, cfg.Where, cfg.MaxExecMS)

	newWorker := func(wid int) (worker, error) {
		return &scanWorker{
			wid:      wid,
			db:       db,
			query:    query,
			pk:       cfg.PK,
			pageSize: cfg.ChunkSize,
			throttle: cfg.ThrottleRPS,
			header:   cfg.Header,
			sink:     filesink.New(cfg.OutDir, fmt.Sprintf("%s_w%02d", cfg.Table, wid), cfg.ChunkSize),
			stats:    stats,
			m:        m,
		}, nil
	}

	pc := poolConfig{
		workers:   workers,
		retries:   cfg.Retries,
		retryable: dbx.IsRetryable,
	}

	return runPool(ctx, pc, batches, stats, m, newWorker)
}
