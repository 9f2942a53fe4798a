package ranger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInterval = errors.New("invalid interval")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSpanOverflow is returned for the full int64 domain, whose 2^64 values
	// cannot be counted in 64-bit arithmetic.
	ErrSpanOverflow = errors.New("interval span overflows uint64")

	// ErrTooManyBatches is returned when a partition is too large to hold in memory.
	ErrTooManyBatches = errors.New("too many batches")
)

// IntervalError reports an interval whose lower bound is above its upper bound.
type IntervalError struct {
	Min, Max int64
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("%s: min %d > max %d", ErrInvalidInterval, e.Min, e.Max)
}

func (e *IntervalError) Unwrap() error {
	return ErrInvalidInterval
}

// ArgumentError reports a non-positive batch size or batch count.
type ArgumentError struct {
	Name  string
	Value int64
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s must be positive, got %d", ErrInvalidArgument, e.Name, e.Value)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// TooManyBatchesError reports a batch count above the materialization limit.
type TooManyBatchesError struct {
	Batches, Limit uint64
}

func (e *TooManyBatchesError) Error() string {
	return fmt.Sprintf("%s: %d batches, limit is %d", ErrTooManyBatches, e.Batches, e.Limit)
}

func (e *TooManyBatchesError) Unwrap() error {
	return ErrTooManyBatches
}
