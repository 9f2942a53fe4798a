package exporter

import (
	"sort"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"rangescan/internal/ranger"
)

// Stats is shared by all workers and read concurrently by the progress reporter.
type Stats struct {
	Rows    atomic.Uint64
	Files   atomic.Uint64
	Done    atomic.Uint64
	Retries atomic.Uint64

	planned  uint64
	inflight *xsync.Map[int, ranger.Range]
}

func NewStats(planned uint64) *Stats {
	return &Stats{
		planned:  planned,
		inflight: xsync.NewMap[int, ranger.Range](),
	}
}

// Planned returns the number of batches the run was started with.
func (s *Stats) Planned() uint64 {
	return s.planned
}

// Inflight returns the batches currently held by workers, ordered by key.
func (s *Stats) Inflight() []ranger.Range {
	out := make([]ranger.Range, 0, s.inflight.Size())
	s.inflight.Range(func(_ int, r ranger.Range) bool {
		out = append(out, r)
		return true
	})

	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })

	return out
}

func (s *Stats) begin(wid int, r ranger.Range) {
	s.inflight.Store(wid, r)
}

func (s *Stats) end(wid int) {
	s.inflight.Delete(wid)
}
