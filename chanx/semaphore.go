package chanx

import (
	"context"
	"errors"

	"github.com/baxromumarov/lockchan"
)

// Semaphore is a counting semaphore for bounding concurrency. Each held
// slot is one buffered element of a [lockchan.Chan], so Acquire unblocks as
// soon as a slot is released or its context is cancelled.
type Semaphore struct {
	slots *lockchan.Chan[struct{}]
}

// NewSemaphore creates a semaphore with n slots.
// Panics if n <= 0.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		panic("chanx: NewSemaphore requires n > 0")
	}
	return &Semaphore{slots: lockchan.New[struct{}](n, lockchan.WithName("semaphore"))}
}

// Acquire blocks until a slot is available or ctx is cancelled.
// Returns ctx.Err() on cancellation, nil on success.
func (s *Semaphore) Acquire(ctx context.Context) error {
	return s.slots.PutContext(ctx, struct{}{})
}

// TryAcquire attempts to acquire a slot without blocking.
func (s *Semaphore) TryAcquire() bool {
	return s.slots.TryPut(struct{}{}) == nil
}

// Release releases a slot. Panics if no slot is held.
func (s *Semaphore) Release() {
	if _, err := s.slots.TryGet(); errors.Is(err, lockchan.ErrWouldBlock) {
		panic("chanx: Semaphore.Release called without matching Acquire")
	}
}

// Available returns the number of free slots.
// The value may be stale in concurrent contexts.
func (s *Semaphore) Available() int {
	return s.slots.Cap() - s.slots.Len()
}
