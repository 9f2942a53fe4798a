// Package metrics records export progress for Prometheus.
package metrics

import "time"

// Batch results reported to Collector.BatchFinished.
const (
	ResultOK     = "ok"
	ResultRetry  = "retry"
	ResultFailed = "failed"
)

// Collector receives batch lifecycle events from the exporter. Implementations
// must be safe for concurrent use by all workers.
type Collector interface {
	// SetPlanned records the number of batches the key range was cut into.
	SetPlanned(batches uint64)
	BatchStarted()
	// BatchFinished records one attempt at a batch and how long it took.
	BatchFinished(result string, elapsed time.Duration)
	RowsExported(n int)
	FileWritten()
}

// Nop discards everything.
type Nop struct{}

var _ Collector = Nop{}

func (Nop) SetPlanned(uint64) {}
func (Nop) BatchStarted() {}
func (Nop) BatchFinished(string, time.Duration) {}
func (Nop) RowsExported(int) {}
func (Nop) FileWritten() {}
