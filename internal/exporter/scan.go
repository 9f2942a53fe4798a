package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"rangescan/internal/dbx"
	"rangescan/internal/filesink"
	"rangescan/internal/metrics"
	"rangescan/internal/util"
)

// scanWorker reads batches page by page and writes every row to its own sink.
type scanWorker struct {
	wid      int
	db       *sql.DB
	query    string
	pk       string
	pageSize int
	throttle int
	header   bool

	sink  *filesink.FileSink
	stats *Stats
	m     metrics.Collector
}

func (w *scanWorker) process(ctx context.Context, j *job) error {
	log.Printf("[W%02d] batch %s from %d (attempt %d)", w.wid, j.batch, j.next, j.attempt+1)

	for !j.done {
		if err := ctx.Err(); err != nil {
			return err
		}

		// rows of a failed page are already in the sink and behind j.next
		read, err := w.page(ctx, j)
		w.stats.Rows.Add(uint64(read))
		w.m.RowsExported(read)
		if err != nil {
			return err
		}

		if read < w.pageSize {
			j.done = true
		}

		if w.throttle > 0 && read > 0 {
			pause := time.Duration(float64(read) / float64(w.throttle) * float64(time.Second))
			if err := sleep(ctx, pause); err != nil {
				return err
			}
		}
	}

	return nil
}

// page reads up to pageSize rows with keys in [j.next, j.batch.To] and moves
// j.next past every row written.
func (w *scanWorker) page(ctx context.Context, j *job) (int, error) {
	rows, err := w.db.QueryContext(ctx, w.query, j.next, j.batch.To, w.pageSize)
	if err != nil {
		return 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return 0, err
	}

	if w.header {
		w.sink.SetHeader(names)
		w.header = false
	}

	pkIdx := pkIndex(names, w.pk)
	if pkIdx == -1 {
		return 0, fmt.Errorf("there is no key column named %s in the result", w.pk)
	}

	vals := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	read := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return read, fmt.Errorf("scan: %w", err)
		}

		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = dbx.AsString(v)
		}

		key, err := strconv.ParseInt(rec[pkIdx], 10, 64)
		if err != nil {
			return read, fmt.Errorf("key %q is not an integer: %w", rec[pkIdx], err)
		}

		if err := w.write(rec); err != nil {
			return read, err
		}

		read++

		if key >= j.batch.To {
			j.done = true
		} else {
			j.next = key + 1
		}
	}

	if err := rows.Err(); err != nil {
		return read, err
	}

	return read, nil
}

func (w *scanWorker) write(rec []string) error {
	closed, err := w.sink.Write(rec)
	if err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}

	if closed > 0 {
		w.stats.Files.Add(1)
		w.m.FileWritten()
	}

	return nil
}

func (w *scanWorker) close() error {
	rows, err := w.sink.Close()
	if err != nil {
		return err
	}

	if rows > 0 {
		w.stats.Files.Add(1)
		w.m.FileWritten()
	}

	return nil
}

func pkIndex(names []string, pk string) int {
	want := util.Unquote(pk)
	for i, n := range names {
		if strings.EqualFold(n, want) {
			return i
		}
	}
	return -1
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
