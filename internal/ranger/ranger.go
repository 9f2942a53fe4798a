// Package ranger splits an inclusive int64 interval into contiguous batches
// that can be scanned in parallel with `pk BETWEEN from AND to`.
package ranger

import (
	"fmt"
	"math"
)

// Range is one inclusive batch [From, To].
type Range struct{ From, To int64 }

// Len returns the number of values covered by the range.
func (r Range) Len() uint64 {
	return uint64(r.To) - uint64(r.From) + 1
}

func (r Range) Contains(v int64) bool {
	return v >= r.From && v <= r.To
}

func (r Range) String() string {
	return fmt.Sprintf("[%d..%d]", r.From, r.To)
}

// Interval is a validated [min, max] pair.
type Interval struct {
	min, max int64
	span     uint64
}

// New validates min <= max and precomputes the number of values in the interval.
func New(min, max int64) (Interval, error) {
	if min > max {
		return Interval{}, &IntervalError{Min: min, Max: max}
	}

	// exact for every ordered int64 pair
	diff := uint64(max) - uint64(min)
	if diff == math.MaxUint64 {
		return Interval{}, ErrSpanOverflow
	}

	return Interval{min: min, max: max, span: diff + 1}, nil
}

func (iv Interval) Min() int64 { return iv.min }

func (iv Interval) Max() int64 { return iv.max }

// Span returns max - min + 1.
func (iv Interval) Span() uint64 { return iv.span }

// WithBatchSize partitions the interval into ceil(span/size) batches.
// A size at least as large as the span yields the single batch [min, max].
func (iv Interval) WithBatchSize(size int64) (Partitioner, error) {
	if size <= 0 {
		return Partitioner{}, &ArgumentError{Name: "batch size", Value: size}
	}

	s := uint64(size)
	n := iv.span / s
	if iv.span%s != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}

	return Partitioner{iv: iv, n: n}, nil
}

// WithBatchCount partitions the interval into count batches, clamped to the
// span so that no batch is ever empty.
func (iv Interval) WithBatchCount(count int64) (Partitioner, error) {
	if count <= 0 {
		return Partitioner{}, &ArgumentError{Name: "batch count", Value: count}
	}

	n := uint64(count)
	if n > iv.span {
		n = iv.span
	}

	return Partitioner{iv: iv, n: n}, nil
}

// Partitioner holds an interval with its resolved batch count. It is an
// immutable value; the zero Partitioner produces no batches.
type Partitioner struct {
	iv Interval
	n  uint64
}

func (p Partitioner) Interval() Interval { return p.iv }

// NumBatches returns the number of batches Batches will produce.
func (p Partitioner) NumBatches() uint64 { return p.n }

// Each calls fn for every batch in ascending order until fn returns false.
//
// The first span%n batches are one value wider than the rest.
func (p Partitioner) Each(fn func(Range) bool) {
	if p.n == 0 {
		return
	}

	base := p.iv.span / p.n
	rem := p.iv.span % p.n

	// cursor walks in uint64 so that high = cursor+width-1 never overflows
	// before it is known to be inside [min, max]
	cursor := uint64(p.iv.min)
	for i := uint64(0); i < p.n; i++ {
		width := base
		if i < rem {
			width++
		}

		high := cursor + width - 1
		if !fn(Range{From: int64(cursor), To: int64(high)}) {
			return
		}
		cursor = high + 1
	}
}

// MaxBatches is the largest batch count Batches and ParameterValues will
// materialize. Larger partitions can still be walked with Each.
const MaxBatches = 1 << 24

// Batches materializes the full batch sequence. It fails with
// ErrTooManyBatches when NumBatches exceeds MaxBatches.
func (p Partitioner) Batches() ([]Range, error) {
	if err := p.checkMaterialize(); err != nil {
		return nil, err
	}
	if p.n == 0 {
		return nil, nil
	}

	out := make([]Range, 0, p.n)
	p.Each(func(r Range) bool {
		out = append(out, r)
		return true
	})

	return out, nil
}

// ParameterValues returns one {from, to} argument row per batch, ready for a
// statement with a `BETWEEN ? AND ?` predicate.
func (p Partitioner) ParameterValues() ([][]any, error) {
	if err := p.checkMaterialize(); err != nil {
		return nil, err
	}
	if p.n == 0 {
		return nil, nil
	}

	out := make([][]any, 0, p.n)
	p.Each(func(r Range) bool {
		out = append(out, []any{r.From, r.To})
		return true
	})

	return out, nil
}

func (p Partitioner) checkMaterialize() error {
	if p.n > MaxBatches {
		return &TooManyBatchesError{Batches: p.n, Limit: MaxBatches}
	}
	return nil
}

// Split divides [min, max] into parts batches.
func Split(min, max int64, parts int) ([]Range, error) {
	iv, err := New(min, max)
	if err != nil {
		return nil, err
	}

	p, err := iv.WithBatchCount(int64(parts))
	if err != nil {
		return nil, err
	}

	return p.Batches()
}

// SplitBySize divides [min, max] into batches of at most size values.
func SplitBySize(min, max, size int64) ([]Range, error) {
	iv, err := New(min, max)
	if err != nil {
		return nil, err
	}

	p, err := iv.WithBatchSize(size)
	if err != nil {
		return nil, err
	}

	return p.Batches()
}
