package chanx

import (
	"fmt"
	"testing"
	"time"

	"github.com/baxromumarov/lockchan"
	"github.com/stretchr/testify/require"
)

// closedWith returns a closed channel still holding vals.
func closedWith[T any](t *testing.T, vals ...T) *lockchan.Chan[T] {
	t.Helper()
	c := lockchan.New[T](len(vals))
	for _, v := range vals {
		require.NoError(t, c.Put(v))
	}
	require.NoError(t, c.Close())
	return c
}

// collectWithin gathers c's values, failing if it does not close within d.
func collectWithin[T any](t *testing.T, c *lockchan.Chan[T], d time.Duration) []T {
	t.Helper()
	done := make(chan []T, 1)
	go func() { done <- Collect(c) }()
	select {
	case got := <-done:
		return got
	case <-time.After(d):
		t.Fatalf("%s was not closed within %v", c, d)
		return nil
	}
}

func mustPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		require.Contains(t, fmt.Sprint(r), contains)
	}()
	fn()
}
