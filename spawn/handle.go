package spawn

import (
	"errors"
	"time"

	"github.com/baxromumarov/lockchan"
)

// Handle tracks a goroutine started by [Go].
type Handle struct {
	done *lockchan.Chan[struct{}]
	err  error
}

// Go starts fn in a new, unsupervised goroutine. A panic in fn is recovered
// and reported by [Handle.Err]. Use a [Group] when the caller must wait for
// several goroutines or react to their errors.
func Go(fn func()) *Handle {
	h := &Handle{done: lockchan.New[struct{}](0)}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.err = newPanicError(r)
			}
			_ = h.done.Close()
		}()
		fn()
	}()
	return h
}

// Join waits for the goroutine to return and reports whether it did within
// d. A non-positive d waits without limit.
func (h *Handle) Join(d time.Duration) bool {
	var opts []lockchan.SelectOption
	if d > 0 {
		opts = append(opts, lockchan.WithTimeout(d))
	}
	_, err := lockchan.Select([]lockchan.Case{lockchan.Recv(h.done)}, opts...)
	return errors.Is(err, lockchan.ErrClosed)
}

// Alive reports whether the goroutine is still running.
func (h *Handle) Alive() bool {
	return !h.done.Closed()
}

// Err returns the recovered panic as a [*PanicError], or nil. It is only
// meaningful once Join has returned true or Alive false.
func (h *Handle) Err() error {
	if h.Alive() {
		return nil
	}
	return h.err
}
