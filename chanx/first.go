package chanx

import (
	"context"
	"errors"
	"slices"

	"github.com/baxromumarov/lockchan"
)

// First waits for the first value available on any of chs and returns it
// with the index of its channel. Closed channels are skipped; if all of
// them are closed, or none are given, First returns [lockchan.ErrClosed].
// It returns the context error if ctx is cancelled first.
//
// Nil channels are ignored.
func First[T any](ctx context.Context, chs ...*lockchan.Chan[T]) (v T, idx int, err error) {
	cases := make([]lockchan.Case, 0, len(chs))
	index := make([]int, 0, len(chs))
	for i, c := range chs {
		if c != nil {
			cases = append(cases, lockchan.Recv(c))
			index = append(index, i)
		}
	}

	for len(cases) > 0 {
		sel, err := lockchan.Select(cases, lockchan.WithContext(ctx))
		if errors.Is(err, lockchan.ErrClosed) {
			cases = slices.Delete(cases, sel.Index, sel.Index+1)
			index = slices.Delete(index, sel.Index, sel.Index+1)
			continue
		}
		if err != nil {
			return v, -1, err
		}
		v, _ = sel.Value.(T)
		return v, index[sel.Index], nil
	}
	return v, -1, lockchan.ErrClosed
}
