package assemblyline

import (
	"context"
	"fmt"
)

// Feeder provides the items of the line. It is called with 0, 1, 2, ... and returns ok=false once there is no item at index.
// Unless parallel feeding is enabled, calls are sequential.
type Feeder[IN any] func(ctx context.Context, index int64) (in IN, ok bool, err error)

// Chewer transforms one fed item. It is called concurrently for different indices.
type Chewer[IN, OUT any] func(ctx context.Context, in IN, index int64) (OUT, error)

// Digester consumes the chewed items, sequentially and in index order.
type Digester[OUT any] func(ctx context.Context, out OUT, index int64) error

// StatusFunc receives line snapshots. It is called from its own goroutine and should return quickly.
type StatusFunc func(Status) error

// FeedSlice feeds the items of a slice, in order.
func FeedSlice[IN any](items []IN) Feeder[IN] {
	return func(_ context.Context, index int64) (IN, bool, error) {
		if index < 0 || index >= int64(len(items)) {
			var zero IN
			return zero, false, nil
		}
		return items[index], true, nil
	}
}

// FeedChannel feeds the values received on ch until it is closed. The index is ignored, so it must not be used with parallel feeding.
func FeedChannel[IN any](ch <-chan IN) Feeder[IN] {
	return func(ctx context.Context, _ int64) (IN, bool, error) {
		select {
		case in, ok := <-ch:
			return in, ok, nil
		case <-ctx.Done():
			var zero IN
			return zero, false, ctx.Err()
		}
	}
}

// AsChewer decorates a plain function, in order to make it seen as a Chewer
func AsChewer[IN, OUT any](fn func(IN) OUT) Chewer[IN, OUT] {
	return func(_ context.Context, in IN, _ int64) (OUT, error) { return fn(in), nil }
}

// AsDigester decorates a plain function, in order to make it seen as a Digester
func AsDigester[OUT any](fn func(OUT, int64)) Digester[OUT] {
	return func(_ context.Context, out OUT, index int64) error {
		fn(out, index)
		return nil
	}
}

// protect calls fn, turning a panic into an ErrPanic error.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
