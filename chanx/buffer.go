package chanx

import (
	"context"
	"errors"
	"time"

	"github.com/baxromumarov/lockchan"
)

// FlushReason indicates why a batch was flushed.
type FlushReason int

const (
	// FlushSize means the batch reached the configured max size.
	FlushSize FlushReason = iota
	// FlushTimeout means the timeout elapsed since the first item in the batch.
	FlushTimeout
	// FlushClose means the input channel was closed with a partial batch remaining.
	FlushClose
)

func (r FlushReason) String() string {
	switch r {
	case FlushSize:
		return "size"
	case FlushTimeout:
		return "timeout"
	case FlushClose:
		return "close"
	default:
		return "unknown"
	}
}

// BatchResult holds a flushed batch and the reason it was flushed.
type BatchResult[T any] struct {
	Items  []T
	Reason FlushReason
}

// Buffer collects values from in into slices of up to size elements. A
// batch is emitted when it reaches size elements or when timeout has
// elapsed since its first item, whichever comes first. The output is closed
// when in is closed, after any partial batch is flushed, or when ctx is
// cancelled.
//
// Buffer panics if size or timeout is not positive.
func Buffer[T any](ctx context.Context, in *lockchan.Chan[T], size int, timeout time.Duration) *lockchan.Chan[[]T] {
	checkBuffer(size, timeout)
	out := lockchan.New[[]T](0)
	go func() {
		defer closeAll(out)
		batchLoop(ctx, in, size, timeout, func(items []T, _ FlushReason) error {
			return out.PutContext(ctx, items)
		})
	}()
	return out
}

// BufferWithReason works like [Buffer] but reports the [FlushReason] with
// each batch.
func BufferWithReason[T any](ctx context.Context, in *lockchan.Chan[T], size int, timeout time.Duration) *lockchan.Chan[BatchResult[T]] {
	checkBuffer(size, timeout)
	out := lockchan.New[BatchResult[T]](0)
	go func() {
		defer closeAll(out)
		batchLoop(ctx, in, size, timeout, func(items []T, r FlushReason) error {
			return out.PutContext(ctx, BatchResult[T]{Items: items, Reason: r})
		})
	}()
	return out
}

func checkBuffer(size int, timeout time.Duration) {
	if size <= 0 {
		panic("chanx: Buffer requires size > 0")
	}
	if timeout <= 0 {
		panic("chanx: Buffer requires timeout > 0")
	}
}

// batchLoop receives from in with a deadline set by the oldest item of the
// current batch and hands every completed batch to emit.
func batchLoop[T any](
	ctx context.Context,
	in *lockchan.Chan[T],
	size int,
	timeout time.Duration,
	emit func([]T, FlushReason) error,
) {
	batch := make([]T, 0, size)
	var deadline time.Time
	cases := []lockchan.Case{lockchan.Recv(in)}

	flush := func(r FlushReason) error {
		if len(batch) == 0 {
			return nil
		}
		items := batch
		batch = make([]T, 0, size)
		return emit(items, r)
	}

	for {
		opts := []lockchan.SelectOption{lockchan.WithContext(ctx)}
		if len(batch) > 0 {
			opts = append(opts, lockchan.WithDeadline(deadline))
		}

		sel, err := lockchan.Select(cases, opts...)
		switch {
		case errors.Is(err, lockchan.ErrClosed):
			_ = flush(FlushClose)
			return
		case errors.Is(err, lockchan.ErrTimeout):
			if flush(FlushTimeout) != nil {
				return
			}
			continue
		case err != nil:
			return
		}

		v, _ := sel.Value.(T) // nil interface values arrive as nil
		batch = append(batch, v)
		if len(batch) == 1 {
			deadline = time.Now().Add(timeout)
		}
		if len(batch) >= size {
			if flush(FlushSize) != nil {
				return
			}
		}
	}
}
