package chanx

import (
	"context"
	"errors"

	"github.com/baxromumarov/lockchan"
)

// SendBatch sends each value in values to c in order. It returns nil if all
// values were sent, the context error if ctx is cancelled mid-stream, or a
// [*lockchan.ClosedError] if c is closed before the batch is through.
func SendBatch[T any](ctx context.Context, c *lockchan.Chan[T], values []T) error {
	for _, v := range values {
		if err := c.PutContext(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// RecvBatch receives up to n values from c. If c is closed before n values
// arrive, it returns the values received so far with a nil error. If ctx is
// cancelled, it returns the partial batch and the context error.
//
// RecvBatch panics if n is not positive.
func RecvBatch[T any](ctx context.Context, c *lockchan.Chan[T], n int) ([]T, error) {
	if n <= 0 {
		panic("chanx: RecvBatch requires n > 0")
	}
	result := make([]T, 0, n)
	for range n {
		v, err := c.GetContext(ctx)
		if errors.Is(err, lockchan.ErrClosed) {
			return result, nil
		}
		if err != nil {
			return result, err
		}
		result = append(result, v)
	}
	return result, nil
}
