package chanx

import (
	"context"
	"testing"
	"time"

	"github.com/baxromumarov/lockchan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendBatch_BasicFunctionality(t *testing.T) {
	c := lockchan.New[int](5)
	require.NoError(t, SendBatch(context.Background(), c, []int{1, 2, 3, 4, 5}))
	require.NoError(t, c.Close())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, Collect(c))
}

func TestSendBatch_EmptySlice(t *testing.T) {
	c := lockchan.New[int](5)
	require.NoError(t, SendBatch(context.Background(), c, nil))
	assert.Equal(t, 0, c.Len())
}

func TestSendBatch_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := lockchan.New[int](1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := SendBatch(ctx, c, []int{1, 2, 3})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, c.Len(), "only the first value fits")
}

func TestSendBatch_ClosedChannel(t *testing.T) {
	c := lockchan.New[int](1)
	require.NoError(t, c.Close())

	err := SendBatch(context.Background(), c, []int{1})
	require.ErrorIs(t, err, lockchan.ErrClosed)

	var ce *lockchan.ClosedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, lockchan.OpSend, ce.Op)
}

func TestRecvBatch_Full(t *testing.T) {
	c := closedWith(t, 1, 2, 3, 4)
	got, err := RecvBatch(context.Background(), c, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestRecvBatch_ClosedEarly(t *testing.T) {
	c := closedWith(t, 1, 2)
	got, err := RecvBatch(context.Background(), c, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
}

func TestRecvBatch_ContextCancellation(t *testing.T) {
	c := lockchan.New[int](2)
	require.NoError(t, c.Put(7))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := RecvBatch(ctx, c, 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []int{7}, got)
}

func TestRecvBatch_InvalidN(t *testing.T) {
	mustPanic(t, "RecvBatch requires n > 0", func() {
		_, _ = RecvBatch(context.Background(), lockchan.New[int](0), 0)
	})
}
