package chanx

import (
	"context"
	"testing"
	"time"

	"github.com/baxromumarov/lockchan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestTee_EveryOutputGetsEveryValue(t *testing.T) {
	outs := Tee(context.Background(), closedWith(t, 1, 2, 3), 3)
	require.Len(t, outs, 3)

	results := make([][]int, len(outs))
	var g errgroup.Group
	for i, out := range outs {
		g.Go(func() error {
			results[i] = Collect(out)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, got := range results {
		assert.Equal(t, []int{1, 2, 3}, got)
	}
}

func TestTee_ClosedConsumerIsSkipped(t *testing.T) {
	outs := Tee(context.Background(), closedWith(t, "x", "y"), 2)
	require.NoError(t, outs[0].Close())

	assert.Equal(t, []string{"x", "y"}, collectWithin(t, outs[1], time.Second))
}

func TestTee_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	outs := Tee(ctx, lockchan.New[int](0), 2)
	cancel()

	for _, out := range outs {
		assert.Empty(t, collectWithin(t, out, time.Second))
	}
}

func TestTee_InvalidN(t *testing.T) {
	mustPanic(t, "Tee requires n > 0", func() {
		Tee(context.Background(), lockchan.New[int](0), 0)
	})
}
