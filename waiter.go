package lockchan

import (
	"sync"
	"sync/atomic"
)

// selection is the shared state of one blocking call. Plain Put and Get
// are selections with a single case; Select may register the same
// selection on many channels. Exactly one party claims it: a channel
// operation matching one of its waiters, Close, or the caller itself when
// its deadline passes.
//
// Claims are made while holding the lock of the channel involved. mu is a
// leaf lock: nothing acquires a channel lock while holding it, and when two
// selections are claimed together they are locked in id order.
type selection struct {
	id   uint64
	mu   sync.Mutex
	done atomic.Bool

	// fired and closed are written once, under mu, by the claimer.
	fired  int
	closed bool

	// wake is closed by whoever claims the selection on the owner's behalf.
	wake chan struct{}
}

var selectionSeq atomic.Uint64

func newSelection() *selection {
	return &selection{
		id:    selectionSeq.Add(1),
		fired: -1,
		wake:  make(chan struct{}),
	}
}

// claim marks s as won by case idx. It reports false if s was already won.
func (s *selection) claim(idx int, closed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done.Load() {
		return false
	}
	s.fired, s.closed = idx, closed
	s.done.Store(true)
	return true
}

// signal wakes the owner of s. Only the party whose claim succeeded may
// call it, and only when claiming on someone else's behalf.
func (s *selection) signal() {
	close(s.wake)
}

// claimPair claims a (case ai) and b (case bi) atomically. If either is
// already won neither is modified and the corresponding lost flag is set.
// a and b must be distinct.
func claimPair(a *selection, ai int, b *selection, bi int) (aLost, bLost bool) {
	first, second := a, b
	if b.id < a.id {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	defer func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}()

	aLost, bLost = a.done.Load(), b.done.Load()
	if aLost || bLost {
		return aLost, bLost
	}
	a.fired, a.closed = ai, false
	b.fired, b.closed = bi, false
	a.done.Store(true)
	b.done.Store(true)
	return false, false
}

// waiter is one selection parked on one channel. For senders val holds the
// value to deliver; for receivers the matching sender writes into val
// before signalling.
type waiter[T any] struct {
	sel *selection
	idx int
	val T

	prev, next *waiter[T]
	queued     bool
}

// waitq is an intrusive FIFO of waiters guarded by the channel mutex.
type waitq[T any] struct {
	first, last *waiter[T]
}

func (q *waitq[T]) enqueue(w *waiter[T]) {
	w.next = nil
	w.prev = q.last
	if q.last == nil {
		q.first = w
	} else {
		q.last.next = w
	}
	q.last = w
	w.queued = true
}

// remove unlinks w. It is a no-op if w was already removed.
func (q *waitq[T]) remove(w *waiter[T]) {
	if !w.queued {
		return
	}
	if w.prev == nil {
		q.first = w.next
	} else {
		w.prev.next = w.next
	}
	if w.next == nil {
		q.last = w.prev
	} else {
		w.next.prev = w.prev
	}
	w.prev, w.next = nil, nil
	w.queued = false
}

// drain removes and returns every waiter in FIFO order.
func (q *waitq[T]) drain() []*waiter[T] {
	var out []*waiter[T]
	for w := q.first; w != nil; {
		next := w.next
		w.prev, w.next = nil, nil
		w.queued = false
		out = append(out, w)
		w = next
	}
	q.first, q.last = nil, nil
	return out
}

// match walks q from the head looking for a waiter that can be claimed
// together with s. Waiters whose selection already won elsewhere are
// dropped on the way. s's own waiters are skipped. The returned waiter is
// unlinked and both selections are claimed; lost reports that s itself was
// won by another channel while walking.
func (q *waitq[T]) match(s *selection, idx int) (w *waiter[T], lost bool) {
	for w = q.first; w != nil; {
		next := w.next
		if w.sel == s {
			w = next
			continue
		}
		if w.sel.done.Load() {
			q.remove(w)
			w = next
			continue
		}
		selfLost, otherLost := claimPair(s, idx, w.sel, w.idx)
		if selfLost {
			return nil, true
		}
		if otherLost {
			q.remove(w)
			w = next
			continue
		}
		q.remove(w)
		return w, false
	}
	return nil, false
}

// claimFirst unlinks and claims the oldest live waiter not owned by s.
// It is used when s has already been claimed by the caller.
func (q *waitq[T]) claimFirst(s *selection) *waiter[T] {
	for w := q.first; w != nil; {
		next := w.next
		if w.sel == s {
			w = next
			continue
		}
		q.remove(w)
		if w.sel.claim(w.idx, false) {
			return w
		}
		w = next
	}
	return nil
}
