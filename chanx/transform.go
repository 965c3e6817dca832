package chanx

import (
	"context"

	"github.com/baxromumarov/lockchan"
)

// Map transforms values from in by applying fn and sends the results to
// the returned channel. The output is closed when in is closed or ctx is
// cancelled.
func Map[T, U any](ctx context.Context, in *lockchan.Chan[T], fn func(T) U) *lockchan.Chan[U] {
	out := lockchan.New[U](0)
	go func() {
		defer closeAll(out)
		for {
			v, err := in.GetContext(ctx)
			if err != nil {
				return
			}
			if err := out.PutContext(ctx, fn(v)); err != nil {
				return
			}
		}
	}()
	return out
}

// Filter passes on the values from in for which fn returns true. The output
// is closed when in is closed or ctx is cancelled.
func Filter[T any](ctx context.Context, in *lockchan.Chan[T], fn func(T) bool) *lockchan.Chan[T] {
	out := lockchan.New[T](0)
	go func() {
		defer closeAll(out)
		for {
			v, err := in.GetContext(ctx)
			if err != nil {
				return
			}
			if !fn(v) {
				continue
			}
			if err := out.PutContext(ctx, v); err != nil {
				return
			}
		}
	}()
	return out
}
