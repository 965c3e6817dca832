package chanx

import (
	"context"
	"errors"
	"slices"

	"github.com/baxromumarov/lockchan"
)

// Merge combines several input channels into one output channel (fan-in).
// A single goroutine selects over the inputs that are still open; a closed
// input is dropped from the set, and the output is closed once every input
// is closed or ctx is cancelled. Values from one input keep their order;
// across inputs the order is whatever Select picks.
//
// Nil inputs are ignored.
func Merge[T any](ctx context.Context, ins ...*lockchan.Chan[T]) *lockchan.Chan[T] {
	out := lockchan.New[T](0)

	cases := make([]lockchan.Case, 0, len(ins))
	for _, c := range ins {
		if c != nil {
			cases = append(cases, lockchan.Recv(c))
		}
	}

	go func() {
		defer closeAll(out)
		for len(cases) > 0 {
			sel, err := lockchan.Select(cases, lockchan.WithContext(ctx))
			if errors.Is(err, lockchan.ErrClosed) {
				cases = slices.Delete(cases, sel.Index, sel.Index+1)
				continue
			}
			if err != nil {
				return
			}
			v, _ := sel.Value.(T) // nil interface values arrive as nil
			if err := out.PutContext(ctx, v); err != nil {
				return
			}
		}
	}()
	return out
}

// Distribute receives values from in and hands each one to whichever of
// outs is first able to take it. An output closed by its consumer is
// dropped. When in is closed, Distribute closes every output and returns
// nil.
//
// It returns the context error if ctx is cancelled, or [lockchan.ErrClosed]
// if every output was closed while values were still arriving. Outputs are
// closed on every return path.
func Distribute[T any](ctx context.Context, in *lockchan.Chan[T], outs ...*lockchan.Chan[T]) error {
	defer closeAll(outs...)

	live := slices.Clone(outs)
	cases := make([]lockchan.Case, len(live))
	for {
		v, err := in.GetContext(ctx)
		if errors.Is(err, lockchan.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		for {
			if len(live) == 0 {
				return lockchan.ErrClosed
			}
			for i, c := range live {
				cases[i] = lockchan.Send(c, v)
			}
			sel, err := lockchan.Select(cases[:len(live)], lockchan.WithContext(ctx))
			if errors.Is(err, lockchan.ErrClosed) {
				live = slices.Delete(live, sel.Index, sel.Index+1)
				continue
			}
			if err != nil {
				return err
			}
			break
		}
	}
}

// FanOut starts a [Distribute] goroutine over n new unbuffered outputs and
// returns them. Each value from in reaches exactly one output.
//
// FanOut panics if n is not positive.
func FanOut[T any](ctx context.Context, in *lockchan.Chan[T], n int) []*lockchan.Chan[T] {
	if n <= 0 {
		panic("chanx: FanOut requires n > 0")
	}
	outs := make([]*lockchan.Chan[T], n)
	for i := range outs {
		outs[i] = lockchan.New[T](0)
	}
	go func() {
		_ = Distribute(ctx, in, outs...)
	}()
	return outs
}

func closeAll[T any](cs ...*lockchan.Chan[T]) {
	for _, c := range cs {
		_ = c.Close()
	}
}
