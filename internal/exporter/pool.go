package exporter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/eapache/queue"

	"rangescan/internal/metrics"
	"rangescan/internal/ranger"
)

// job is one batch on its way through the pool. next is the first key not yet
// written, so a retried job resumes where the failed attempt stopped.
type job struct {
	batch   ranger.Range
	next    int64
	done    bool
	attempt int
}

type result struct {
	job     *job
	err     error
	elapsed time.Duration
}

// worker scans the jobs handed to it one at a time.
type worker interface {
	process(ctx context.Context, j *job) error
	close() error
}

type poolConfig struct {
	workers   int
	retries   int
	retryable func(error) bool
}

// runPool hands each batch to exactly one worker at a time. A batch failing
// with a retryable error goes back to the end of the queue until its retries
// are spent; the first permanent error cancels the remaining work.
func runPool(
	ctx context.Context,
	cfg poolConfig,
	batches []ranger.Range,
	stats *Stats,
	m metrics.Collector,
	newWorker func(wid int) (worker, error),
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pending := queue.New()
	for _, b := range batches {
		pending.Add(&job{batch: b, next: b.From})
	}

	jobs := make(chan *job)
	results := make(chan result, cfg.workers)
	closeErrs := make(chan error, cfg.workers)

	var wg sync.WaitGroup
	for i := 0; i < cfg.workers; i++ {
		w, err := newWorker(i + 1)
		if err != nil {
			cancel()
			close(jobs)
			wg.Wait()
			return fmt.Errorf("worker %d: %w", i+1, err)
		}

		wg.Add(1)
		go func(wid int, w worker) {
			defer wg.Done()
			for j := range jobs {
				stats.begin(wid, j.batch)
				m.BatchStarted()
				start := time.Now()
				err := w.process(ctx, j)
				stats.end(wid)
				results <- result{job: j, err: err, elapsed: time.Since(start)}
			}
			if err := w.close(); err != nil {
				closeErrs <- fmt.Errorf("worker %d: %w", wid, err)
			}
		}(i+1, w)
	}

	var firstErr error
	inflight := 0
	done := ctx.Done()

	for inflight > 0 || (firstErr == nil && pending.Length() > 0) {
		var out chan<- *job
		var next *job
		if firstErr == nil && pending.Length() > 0 {
			out = jobs
			next = pending.Peek().(*job)
		}

		select {
		case out <- next:
			pending.Remove()
			inflight++

		case r := <-results:
			inflight--
			if err := handleResult(r, cfg, pending, stats, m); err != nil && firstErr == nil {
				firstErr = err
				cancel()
			}

		case <-done:
			done = nil
			if firstErr == nil {
				firstErr = ctx.Err()
			}
		}
	}

	close(jobs)
	wg.Wait()
	close(closeErrs)

	for err := range closeErrs {
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func handleResult(r result, cfg poolConfig, pending *queue.Queue, stats *Stats, m metrics.Collector) error {
	j := r.job

	if r.err == nil {
		stats.Done.Add(1)
		m.BatchFinished(metrics.ResultOK, r.elapsed)
		return nil
	}

	if errors.Is(r.err, context.Canceled) || errors.Is(r.err, context.DeadlineExceeded) {
		m.BatchFinished(metrics.ResultFailed, r.elapsed)
		return r.err
	}

	if j.attempt < cfg.retries && cfg.retryable != nil && cfg.retryable(r.err) {
		j.attempt++
		stats.Retries.Add(1)
		m.BatchFinished(metrics.ResultRetry, r.elapsed)
		log.Printf("[WARN] batch %s: %v (retry %d/%d from %d)", j.batch, r.err, j.attempt, cfg.retries, j.next)
		pending.Add(j)
		return nil
	}

	m.BatchFinished(metrics.ResultFailed, r.elapsed)
	return fmt.Errorf("batch %s: %w", j.batch, r.err)
}
