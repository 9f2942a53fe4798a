package progress

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"rangescan/internal/exporter"
	"rangescan/internal/util"
)

// Reporter periodically prints export throughput and batch completion.
type Reporter struct {
	stats  *exporter.Stats
	span   uint64
	start  time.Time
	every  time.Duration
	inline bool
	out    io.Writer
	doneCh chan struct{}
}

// New returns a reporter for an export over span key values. Inline rendering
// is only used when stdout is a terminal.
func New(stats *exporter.Stats, span uint64, every time.Duration, inline bool, start time.Time) *Reporter {
	return &Reporter{
		stats:  stats,
		span:   span,
		start:  start,
		every:  every,
		inline: inline && isTerminal(os.Stdout),
		out:    os.Stdout,
		doneCh: make(chan struct{}),
	}
}

func (r *Reporter) Start(ctx context.Context) {
	go func() {
		defer close(r.doneCh)

		tkr := time.NewTicker(r.every)
		defer tkr.Stop()

		for {
			select {
			case <-tkr.C:
				line := r.line(time.Since(r.start))
				if r.inline {
					fmt.Fprintf(r.out, "\r\033[2K%s", line)
				} else {
					log.Print(line)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// WaitAndFinish blocks until the context given to Start is done.
func (r *Reporter) WaitAndFinish() {
	<-r.doneCh
	if r.inline {
		fmt.Fprintln(r.out)
	}
}

func (r *Reporter) line(elapsed time.Duration) string {
	rows := r.stats.Rows.Load()
	files := r.stats.Files.Load()
	done := r.stats.Done.Load()
	planned := r.stats.Planned()

	rps := float64(rows) / math.Max(elapsed.Seconds(), 0.001)

	// batches are exact, rows against the key span are only an estimate
	pct := 100.0
	if planned > 0 {
		pct = 100.0 * float64(done) / float64(planned)
	}

	eta := "-"
	if r.span > 0 {
		eta = formatETA(math.Max(float64(r.span)-float64(rows), 0), rps)
	}

	line := fmt.Sprintf("[PROGRESS] rows=%s (%.0f/s) files=%s batches=%s/%s %.1f%% ETA<=%s",
		util.FormatNumber(rows), rps, util.FormatNumber(files),
		util.FormatNumber(done), util.FormatNumber(planned), pct, eta)

	if inflight := r.stats.Inflight(); len(inflight) > 0 {
		line += fmt.Sprintf(" active=%d lowest=%s", len(inflight), inflight[0])
	}

	return line
}

// maxETASeconds is the longest wait a time.Duration can hold.
const maxETASeconds = float64(math.MaxInt64 / int64(time.Second))

// formatETA returns "-" when the wait is unknown or too long to be a time.Duration.
func formatETA(remain, rps float64) string {
	if rps <= 0 {
		return "-"
	}

	secs := remain / rps
	if secs >= maxETASeconds {
		return "-"
	}

	return (time.Duration(secs) * time.Second).Truncate(time.Second).String()
}
