package lockchan

import (
	"math/rand/v2"
	"time"
)

// Case is one candidate operation of a [Select]. Build cases with [Recv]
// and [Send]. A Case describes the operation only; the same Case may be
// passed to many Select calls, including concurrent ones.
type Case interface {
	begin() caseOp
}

// Recv returns a case that receives from c.
func Recv[T any](c *Chan[T]) Case {
	return recvCase[T]{c: c}
}

// Send returns a case that sends v on c.
func Send[T any](c *Chan[T], v T) Case {
	return sendCase[T]{c: c, val: v}
}

// Selected describes the case that completed a [Select].
type Selected struct {
	// Index is the position of the winning case in the cases slice, or -1
	// if no case completed.
	Index int
	// Chan is the winning case's channel.
	Chan Channel
	// Op is the direction of the winning case.
	Op Op
	// Value is the received value for a receive case; nil for sends.
	Value any
}

// Select waits until exactly one of cases can complete, completes it and
// reports which one. When several cases are ready at once, one is chosen
// uniformly at random.
//
// A receive case on a closed, drained channel and a send case on a closed
// channel are ready: Select returns the case in Selected and a
// [*ClosedError] naming the channel.
//
// Without options Select blocks until a case completes; with no cases it
// blocks forever. [WithDefault] turns it into a non-blocking poll,
// [WithTimeout] and [WithDeadline] bound the wait ([ErrTimeout]), and
// [WithContext] aborts it with ctx.Err(). A Select that returns an error
// other than [*ClosedError] has completed no operation and left nothing
// registered on any channel.
func Select(cases []Case, opts ...SelectOption) (Selected, error) {
	var cfg selectConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ops := make([]caseOp, len(cases))
	for i, cs := range cases {
		if cs == nil {
			panic("lockchan: Select case must not be nil")
		}
		ops[i] = cs.begin()
	}

	idx, closed, err := run(ops, cfg)
	if err != nil {
		return Selected{Index: -1}, err
	}

	op := ops[idx]
	sel := Selected{
		Index: idx,
		Chan:  op.channel(),
		Op:    op.dir(),
	}
	if closed {
		return sel, &ClosedError{Chan: sel.Chan, Op: sel.Op}
	}
	if sel.Op == OpRecv {
		sel.Value = op.value()
	}
	return sel, nil
}

// caseOp is the per-call state of one case.
type caseOp interface {
	channel() Channel
	dir() Op
	// try attempts the case without registering anything.
	try(s *selection, idx int) outcome
	// tryOrPark attempts the case and, if it is not ready, parks a waiter
	// for s, all under one hold of the channel lock.
	tryOrPark(s *selection, idx int) outcome
	// unpark removes the parked waiter, if any.
	unpark()
	// value returns the received value once the case has won.
	value() any
	observe(closed bool)
}

// run is the select algorithm shared by Select, Put and Get. It returns
// the index of the winning case and whether it won because its channel is
// closed.
//
// Locks are taken one channel at a time. Pass 1 polls every case in random
// order. Pass 2 re-polls each case and parks a waiter on it under the same
// lock hold, so readiness appearing after pass 1 is either seen by the poll
// or by whoever makes the channel ready. The selection's claim decides the
// single winner; pass 3 unparks everything.
func run(ops []caseOp, cfg selectConfig) (int, bool, error) {
	var done <-chan struct{}
	if cfg.ctx != nil {
		done = cfg.ctx.Done()
	}
	var timeout <-chan time.Time
	if !cfg.deadline.IsZero() {
		t := time.NewTimer(time.Until(cfg.deadline))
		defer t.Stop()
		timeout = t.C
	}

	if len(ops) == 0 {
		if cfg.nonBlocking {
			return -1, false, ErrWouldBlock
		}
		select {
		case <-done:
			return -1, false, cfg.ctx.Err()
		case <-timeout:
			return -1, false, ErrTimeout
		}
	}

	s := newSelection()
	order := rand.Perm(len(ops))

	// pass 1
	for _, i := range order {
		switch ops[i].try(s, i) {
		case completed:
			ops[i].observe(false)
			return i, false, nil
		case closedReady:
			return i, true, nil
		}
	}
	if cfg.nonBlocking {
		return -1, false, ErrWouldBlock
	}

	// pass 2
	selfClaimed := false
	for _, i := range order {
		res := ops[i].tryOrPark(s, i)
		if res == notReady {
			continue
		}
		selfClaimed = res != lost
		break
	}

	var err error
	if !selfClaimed {
		select {
		case <-s.wake:
		case <-done:
			err = cfg.ctx.Err()
		case <-timeout:
			err = ErrTimeout
		}
		if err != nil && !s.claim(-1, false) {
			// A channel won the race with the deadline; its result stands.
			err = nil
			<-s.wake
		}
	}

	// pass 3
	for _, i := range order {
		ops[i].unpark()
	}

	if err != nil {
		return -1, false, err
	}
	if !s.closed {
		ops[s.fired].observe(false)
	}
	return s.fired, s.closed, nil
}

type recvCase[T any] struct {
	c *Chan[T]
}

func (rc recvCase[T]) begin() caseOp {
	if rc.c == nil {
		panic("lockchan: Recv on nil channel")
	}
	return &recvOp[T]{c: rc.c}
}

type sendCase[T any] struct {
	c   *Chan[T]
	val T
}

func (sc sendCase[T]) begin() caseOp {
	if sc.c == nil {
		panic("lockchan: Send on nil channel")
	}
	return &sendOp[T]{c: sc.c, val: sc.val}
}

type recvOp[T any] struct {
	c   *Chan[T]
	w   *waiter[T]
	val T
}

func (op *recvOp[T]) channel() Channel { return op.c }

func (op *recvOp[T]) dir() Op { return OpRecv }

func (op *recvOp[T]) try(s *selection, idx int) outcome {
	op.c.mu.Lock()
	defer op.c.mu.Unlock()

	v, res := op.c.tryRecvLocked(s, idx)
	if res == completed {
		op.val = v
	}
	return res
}

func (op *recvOp[T]) tryOrPark(s *selection, idx int) outcome {
	op.c.mu.Lock()
	if s.done.Load() {
		op.c.mu.Unlock()
		return lost
	}
	v, res := op.c.tryRecvLocked(s, idx)
	switch res {
	case completed:
		op.val = v
	case notReady:
		op.w = &waiter[T]{sel: s, idx: idx}
		op.c.recvq.enqueue(op.w)
	}
	op.c.mu.Unlock()

	if res == notReady {
		if o := op.c.cfg.observer; o != nil {
			o.ObserveWait(op.c, OpRecv)
		}
	}
	return res
}

func (op *recvOp[T]) unpark() {
	if op.w == nil {
		return
	}
	op.c.mu.Lock()
	op.c.recvq.remove(op.w)
	op.c.mu.Unlock()
}

// received returns the value delivered to the winning receive. A value
// handed over while parked lives in the waiter.
func (op *recvOp[T]) received() T {
	if op.w != nil && op.w.sel.fired == op.w.idx {
		return op.w.val
	}
	return op.val
}

func (op *recvOp[T]) value() any { return op.received() }

func (op *recvOp[T]) observe(closed bool) {
	if o := op.c.cfg.observer; o != nil && !closed {
		o.ObserveRecv(op.c)
	}
}

type sendOp[T any] struct {
	c   *Chan[T]
	w   *waiter[T]
	val T
}

func (op *sendOp[T]) channel() Channel { return op.c }

func (op *sendOp[T]) dir() Op { return OpSend }

func (op *sendOp[T]) try(s *selection, idx int) outcome {
	op.c.mu.Lock()
	defer op.c.mu.Unlock()
	return op.c.trySendLocked(s, idx, op.val)
}

func (op *sendOp[T]) tryOrPark(s *selection, idx int) outcome {
	op.c.mu.Lock()
	if s.done.Load() {
		op.c.mu.Unlock()
		return lost
	}
	res := op.c.trySendLocked(s, idx, op.val)
	if res == notReady {
		op.w = &waiter[T]{sel: s, idx: idx, val: op.val}
		op.c.sendq.enqueue(op.w)
	}
	op.c.mu.Unlock()

	if res == notReady {
		if o := op.c.cfg.observer; o != nil {
			o.ObserveWait(op.c, OpSend)
		}
	}
	return res
}

func (op *sendOp[T]) unpark() {
	if op.w == nil {
		return
	}
	op.c.mu.Lock()
	op.c.sendq.remove(op.w)
	op.c.mu.Unlock()
}

func (op *sendOp[T]) value() any { return nil }

func (op *sendOp[T]) observe(closed bool) {
	if o := op.c.cfg.observer; o != nil && !closed {
		o.ObserveSend(op.c)
	}
}
