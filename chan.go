package lockchan

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Channel is the type-independent view of a [Chan]. It identifies the
// channel in [Selected] and [ClosedError].
type Channel interface {
	ID() uuid.UUID
	Name() string
	Len() int
	Cap() int
	Closed() bool
	String() string
}

// Chan is a bounded FIFO channel safe for use by many goroutines.
//
// A Chan with capacity 0 is a rendezvous: Put completes only when a Get
// takes the value directly, and vice versa. A Chan with capacity n > 0
// accepts up to n values before Put blocks.
//
// After [Chan.Close], Put fails immediately with a [*ClosedError] and Get
// keeps returning buffered values until the buffer is empty, then fails
// with a [*ClosedError] as well.
type Chan[T any] struct {
	id  uuid.UUID
	cfg config

	mu     sync.Mutex
	buf    *ring[T] // nil for rendezvous channels
	closed bool
	recvq  waitq[T]
	sendq  waitq[T]
}

var _ Channel = (*Chan[int])(nil)

// New creates a channel with the given buffer capacity.
// New panics if capacity is negative.
func New[T any](capacity int, opts ...Option) *Chan[T] {
	if capacity < 0 {
		panic("lockchan: New requires capacity >= 0")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Chan[T]{
		id:  uuid.New(),
		cfg: cfg,
	}
	if capacity > 0 {
		c.buf = newRing[T](capacity)
	}
	return c
}

// Put sends v, blocking until there is buffer room or a receiver takes it.
// It returns a [*ClosedError] if the channel is closed on entry or while
// Put is blocked.
func (c *Chan[T]) Put(v T) error {
	return c.put(v, selectConfig{})
}

// PutContext is like [Chan.Put] but gives up with ctx.Err() once ctx is done.
func (c *Chan[T]) PutContext(ctx context.Context, v T) error {
	return c.put(v, selectConfig{ctx: ctx})
}

// TryPut sends v only if that can happen without blocking. It returns
// [ErrWouldBlock] otherwise.
func (c *Chan[T]) TryPut(v T) error {
	return c.put(v, selectConfig{nonBlocking: true})
}

func (c *Chan[T]) put(v T, cfg selectConfig) error {
	op := &sendOp[T]{c: c, val: v}
	_, closed, err := run([]caseOp{op}, cfg)
	if err != nil {
		return err
	}
	if closed {
		return c.closedError(OpSend)
	}
	return nil
}

// Get receives the oldest value, blocking until one is available. Once the
// channel is closed and drained, Get returns a [*ClosedError] carrying
// this channel.
func (c *Chan[T]) Get() (T, error) {
	return c.get(selectConfig{})
}

// GetContext is like [Chan.Get] but gives up with ctx.Err() once ctx is done.
func (c *Chan[T]) GetContext(ctx context.Context) (T, error) {
	return c.get(selectConfig{ctx: ctx})
}

// TryGet receives a value only if one is available without blocking. It
// returns [ErrWouldBlock] otherwise.
func (c *Chan[T]) TryGet() (T, error) {
	return c.get(selectConfig{nonBlocking: true})
}

func (c *Chan[T]) get(cfg selectConfig) (T, error) {
	var zero T
	op := &recvOp[T]{c: c}
	_, closed, err := run([]caseOp{op}, cfg)
	if err != nil {
		return zero, err
	}
	if closed {
		return zero, c.closedError(OpRecv)
	}
	return op.received(), nil
}

// Close marks the channel closed and wakes every blocked sender (which
// fails) and receiver (which observes the closure). Values already
// buffered remain available to Get.
// Close returns [ErrAlreadyClosed] if the channel was already closed.
func (c *Chan[T]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.log().Warn("close of closed channel")
		return ErrAlreadyClosed
	}
	c.closed = true

	woken := 0
	for _, w := range c.sendq.drain() {
		if w.sel.claim(w.idx, true) {
			w.sel.signal()
			woken++
		}
	}
	for _, w := range c.recvq.drain() {
		if w.sel.claim(w.idx, true) {
			w.sel.signal()
			woken++
		}
	}
	buffered := c.lenLocked()
	c.mu.Unlock()

	c.log().WithFields(logrus.Fields{
		"woken":    woken,
		"buffered": buffered,
	}).Debug("channel closed")
	if o := c.cfg.observer; o != nil {
		o.ObserveClose(c)
	}
	return nil
}

// All returns an iterator over received values. It stops silently when the
// channel is closed and drained. Every iterator shares the channel's single
// stream: values taken by one are not seen by another.
func (c *Chan[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := c.Get()
			if err != nil {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// ID returns the channel's unique identity.
func (c *Chan[T]) ID() uuid.UUID { return c.id }

// Name returns the name set with [WithName], or "".
func (c *Chan[T]) Name() string { return c.cfg.name }

// Len returns the number of buffered values. The value may be stale in
// concurrent contexts.
func (c *Chan[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lenLocked()
}

// Cap returns the buffer capacity; 0 for a rendezvous channel.
func (c *Chan[T]) Cap() int {
	if c.buf == nil {
		return 0
	}
	return c.buf.cap()
}

// Closed reports whether Close has been called.
func (c *Chan[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Chan[T]) String() string {
	if c.cfg.name != "" {
		return fmt.Sprintf("Chan(%s)", c.cfg.name)
	}
	return fmt.Sprintf("Chan(%s)", c.id)
}

func (c *Chan[T]) lenLocked() int {
	if c.buf == nil {
		return 0
	}
	return c.buf.len()
}

func (c *Chan[T]) closedError(op Op) error {
	return &ClosedError{Chan: c, Op: op}
}

func (c *Chan[T]) log() logrus.FieldLogger {
	return c.cfg.logger.WithFields(logrus.Fields{
		"chan": c.String(),
		"id":   c.id.String(),
	})
}

// outcome is the result of trying one case under its channel lock.
type outcome uint8

const (
	notReady outcome = iota
	completed
	closedReady
	// lost means the selection was already claimed by another channel.
	lost
)

// trySendLocked attempts to deliver v for case idx of s. c.mu must be held.
func (c *Chan[T]) trySendLocked(s *selection, idx int, v T) outcome {
	if c.closed {
		if !s.claim(idx, true) {
			return lost
		}
		return closedReady
	}

	w, selfLost := c.recvq.match(s, idx)
	if selfLost {
		return lost
	}
	if w != nil {
		w.val = v
		w.sel.signal()
		return completed
	}

	if c.buf != nil && !c.buf.full() {
		if !s.claim(idx, false) {
			return lost
		}
		c.buf.push(v)
		return completed
	}
	return notReady
}

// tryRecvLocked attempts to receive for case idx of s. c.mu must be held.
func (c *Chan[T]) tryRecvLocked(s *selection, idx int) (T, outcome) {
	var zero T

	if c.buf != nil && !c.buf.empty() {
		if !s.claim(idx, false) {
			return zero, lost
		}
		v := c.buf.pop()
		// The freed slot goes to the oldest blocked sender.
		if w := c.sendq.claimFirst(s); w != nil {
			c.buf.push(w.val)
			w.sel.signal()
		}
		return v, completed
	}

	w, selfLost := c.sendq.match(s, idx)
	if selfLost {
		return zero, lost
	}
	if w != nil {
		v := w.val
		w.sel.signal()
		return v, completed
	}

	if c.closed {
		if !s.claim(idx, true) {
			return zero, lost
		}
		return zero, closedReady
	}
	return zero, notReady
}
