package lockchan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSelectReadyValueWithoutBlocking(t *testing.T) {
	a := New[int](1)
	b := New[int](1)
	require.NoError(t, a.Put(10))

	start := time.Now()
	sel, err := Select([]Case{Recv(a), Recv(b)})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 0, sel.Index)
	assert.Same(t, a, sel.Chan)
	assert.Equal(t, OpRecv, sel.Op)
	assert.Equal(t, 10, sel.Value)
}

func TestSelectTimeoutLeavesNoRegistration(t *testing.T) {
	a := New[int](0)
	b := New[int](0)

	start := time.Now()
	sel, err := Select([]Case{Recv(a), Recv(b)}, WithTimeout(100*time.Millisecond))
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, -1, sel.Index)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 600*time.Millisecond)

	// A stale receiver on a would let this succeed.
	assert.ErrorIs(t, a.TryPut(1), ErrWouldBlock)
	assert.ErrorIs(t, b.TryPut(1), ErrWouldBlock)

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, a.Put(5))
	}()
	v, err := a.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	waitDone(t, done, time.Second, "put/get pair after timeout did not complete")
}

func TestSelectDeadlineInPast(t *testing.T) {
	a := New[int](1)
	_, err := Select([]Case{Recv(a)}, WithDeadline(time.Now().Add(-time.Second)))
	assert.ErrorIs(t, err, ErrTimeout)

	require.NoError(t, a.Put(1))
	sel, err := Select([]Case{Recv(a)}, WithDeadline(time.Now().Add(-time.Second)))
	require.NoError(t, err, "a ready case wins over an expired deadline")
	assert.Equal(t, 1, sel.Value)
}

func TestSelectDefault(t *testing.T) {
	a := New[int](0)
	b := New[string](0)

	_, err := Select([]Case{Recv(a), Send(b, "x")}, WithDefault())
	assert.ErrorIs(t, err, ErrWouldBlock)

	assert.ErrorIs(t, a.TryPut(1), ErrWouldBlock, "default must not leave waiters behind")
	_, err = b.TryGet()
	assert.ErrorIs(t, err, ErrWouldBlock)
}

func TestSelectNoCases(t *testing.T) {
	_, err := Select(nil, WithDefault())
	assert.ErrorIs(t, err, ErrWouldBlock)

	_, err = Select(nil, WithTimeout(10*time.Millisecond))
	assert.ErrorIs(t, err, ErrTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Select(nil, WithContext(ctx))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectSendCase(t *testing.T) {
	full := New[int](1)
	require.NoError(t, full.Put(0))
	room := New[int](1)

	sel, err := Select([]Case{Send(full, 1), Send(room, 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)
	assert.Equal(t, OpSend, sel.Op)
	assert.Nil(t, sel.Value)

	v, err := room.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestSelectMixedTypes(t *testing.T) {
	nums := New[int](0)
	words := New[string](1)
	require.NoError(t, words.Put("hello"))

	sel, err := Select([]Case{Recv(nums), Recv(words)})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)
	assert.Equal(t, "hello", sel.Value)
}

func TestSelectClosedRecvIsReady(t *testing.T) {
	a := New[int](0)
	b := New[int](0)
	require.NoError(t, b.Close())

	sel, err := Select([]Case{Recv(a), Recv(b)})
	require.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 1, sel.Index)

	which, ok := ClosedChan(err)
	require.True(t, ok)
	assert.Same(t, b, which)
}

func TestSelectClosedSendIsReady(t *testing.T) {
	a := New[int](0)
	require.NoError(t, a.Close())

	sel, err := Select([]Case{Send(a, 1)})
	var ce *ClosedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, OpSend, ce.Op)
	assert.Equal(t, 0, sel.Index)
}

func TestSelectClosedWhileParked(t *testing.T) {
	a := New[int](0)
	b := New[int](0)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = a.Close()
	}()

	sel, err := Select([]Case{Recv(a), Recv(b)}, WithTimeout(time.Second))
	require.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, sel.Index)

	assert.ErrorIs(t, b.TryPut(1), ErrWouldBlock, "registration on b must be gone")
}

func TestSelectWakesOnLaterSend(t *testing.T) {
	a := New[int](0)
	b := New[int](0)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = b.Put(7)
	}()

	sel, err := Select([]Case{Recv(a), Recv(b)})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)
	assert.Equal(t, 7, sel.Value)
}

func TestSelectWakesOnLaterRecv(t *testing.T) {
	a := New[int](0)
	b := New[int](0)

	got := make(chan int, 1)
	go func() {
		time.Sleep(20 * time.Millisecond)
		v, _ := a.Get()
		got <- v
	}()

	sel, err := Select([]Case{Send(a, 3), Send(b, 4)}, WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Index)
	assert.Equal(t, 3, <-got)
}

func TestSelectCompletesExactlyOne(t *testing.T) {
	a := New[int](0)
	b := New[int](0)

	var wg sync.WaitGroup
	sent := make(chan int, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if a.Put(1) == nil {
			sent <- 1
		}
	}()
	go func() {
		defer wg.Done()
		if b.Put(2) == nil {
			sent <- 2
		}
	}()

	sel, err := Select([]Case{Recv(a), Recv(b)})
	require.NoError(t, err)

	// Exactly one producer is released; drain the other so it finishes.
	other := b
	if sel.Index == 1 {
		other = a
	}
	assert.Equal(t, sel.Value, <-sent)

	v, err := other.Get()
	require.NoError(t, err)
	assert.NotEqual(t, sel.Value, v)

	wg.Wait()
	assert.Len(t, sent, 1)
}

func TestSelectMatchesAnotherSelect(t *testing.T) {
	c := New[int](0)
	d := New[int](0)

	done := make(chan error, 1)
	go func() {
		_, err := Select([]Case{Send(c, 5), Send(d, 6)})
		done <- err
	}()

	sel, err := Select([]Case{Recv(c), Recv(d)}, WithTimeout(time.Second))
	require.NoError(t, err)
	if sel.Index == 0 {
		assert.Equal(t, 5, sel.Value)
	} else {
		assert.Equal(t, 6, sel.Value)
	}
	assert.NoError(t, <-done)
}

func TestSelectIgnoresOwnOppositeCase(t *testing.T) {
	c := New[int](0)

	_, err := Select([]Case{Send(c, 1), Recv(c)}, WithTimeout(30*time.Millisecond))
	assert.ErrorIs(t, err, ErrTimeout, "a select must not rendezvous with itself")
}

func TestSelectContextCancel(t *testing.T) {
	a := New[int](0)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Select([]Case{Recv(a)}, WithContext(ctx))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, a.TryPut(1), ErrWouldBlock)
}

func TestSelectFairness(t *testing.T) {
	a := New[int](1)
	b := New[int](1)
	require.NoError(t, a.Put(0))
	require.NoError(t, b.Put(1))

	const rounds = 4000
	counts := [2]int{}
	chans := [2]*Chan[int]{a, b}
	cases := []Case{Recv(a), Recv(b)}

	for range rounds {
		sel, err := Select(cases)
		require.NoError(t, err)
		counts[sel.Index]++
		require.NoError(t, chans[sel.Index].Put(sel.Index))
	}

	// Expected 2000 each; 1700 is more than 9 standard deviations away.
	assert.Greater(t, counts[0], 1700, "counts: %v", counts)
	assert.Greater(t, counts[1], 1700, "counts: %v", counts)
}

func TestSelectNilCasePanics(t *testing.T) {
	mustPanic(t, "must not be nil", func() {
		_, _ = Select([]Case{nil})
	})
	mustPanic(t, "nil channel", func() {
		_, _ = Select([]Case{Recv[int](nil)})
	})
}

func TestSelectOverlappingSetsStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	const (
		nChans    = 4
		senders   = 4
		receivers = 4
		perSender = 500
	)

	chans := make([]*Chan[int], nChans)
	for i := range chans {
		chans[i] = New[int](i % 2) // mix rendezvous and buffered
	}

	var producers errgroup.Group
	for s := range senders {
		producers.Go(func() error {
			for i := range perSender {
				v := s*perSender + i
				// Each sender lists the channels in a different order.
				cases := make([]Case, nChans)
				for k := range nChans {
					cases[k] = Send(chans[(s+k)%nChans], v)
				}
				if _, err := Select(cases); err != nil {
					return fmt.Errorf("sender %d: %w", s, err)
				}
			}
			return nil
		})
	}

	var (
		mu   sync.Mutex
		seen = make(map[int]int)
	)
	var consumers errgroup.Group
	for r := range receivers {
		consumers.Go(func() error {
			open := make([]*Chan[int], 0, nChans)
			for k := range nChans {
				open = append(open, chans[(r+k)%nChans])
			}
			for len(open) > 0 {
				cases := make([]Case, len(open))
				for k, c := range open {
					cases[k] = Recv(c)
				}
				sel, err := Select(cases)
				if errors.Is(err, ErrClosed) {
					open = append(open[:sel.Index], open[sel.Index+1:]...)
					continue
				}
				if err != nil {
					return err
				}
				mu.Lock()
				seen[sel.Value.(int)]++
				mu.Unlock()
			}
			return nil
		})
	}

	require.NoError(t, producers.Wait())
	for _, c := range chans {
		require.NoError(t, c.Close())
	}
	require.NoError(t, consumers.Wait())

	require.Len(t, seen, senders*perSender)
	for v, n := range seen {
		require.Equal(t, 1, n, "value %d delivered %d times", v, n)
	}
}
