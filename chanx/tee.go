package chanx

import (
	"context"
	"errors"
	"slices"

	"github.com/baxromumarov/lockchan"
)

// Tee broadcasts every value from in to n independent unbuffered outputs.
// For each value it selects over the outputs that have not yet taken it,
// so a slow consumer delays the next value but never the delivery to the
// others. An output closed by its consumer stops receiving. The outputs are
// closed when in is closed or ctx is cancelled.
//
// Tee panics if n is not positive.
func Tee[T any](ctx context.Context, in *lockchan.Chan[T], n int) []*lockchan.Chan[T] {
	if n <= 0 {
		panic("chanx: Tee requires n > 0")
	}

	outs := make([]*lockchan.Chan[T], n)
	for i := range outs {
		outs[i] = lockchan.New[T](0)
	}

	go func() {
		defer closeAll(outs...)

		live := slices.Clone(outs)
		pending := make([]*lockchan.Chan[T], 0, n)
		cases := make([]lockchan.Case, 0, n)
		for {
			v, err := in.GetContext(ctx)
			if err != nil {
				return
			}

			pending = append(pending[:0], live...)
			for len(pending) > 0 {
				cases = cases[:0]
				for _, c := range pending {
					cases = append(cases, lockchan.Send(c, v))
				}
				sel, err := lockchan.Select(cases, lockchan.WithContext(ctx))
				switch {
				case errors.Is(err, lockchan.ErrClosed):
					closed := pending[sel.Index]
					live = slices.DeleteFunc(live, func(c *lockchan.Chan[T]) bool { return c == closed })
				case err != nil:
					return
				}
				pending = slices.Delete(pending, sel.Index, sel.Index+1)
			}
		}
	}()
	return outs
}
