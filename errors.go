package lockchan

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed matches every [*ClosedError] via [errors.Is].
	ErrClosed = errors.New("lockchan: channel closed")

	// ErrAlreadyClosed is returned by [Chan.Close] on a channel that is
	// already closed. Closing twice is a programming error.
	ErrAlreadyClosed = errors.New("lockchan: channel already closed")

	// ErrTimeout is returned by [Select] when the deadline set with
	// [WithTimeout] or [WithDeadline] passes before any case completes.
	ErrTimeout = errors.New("lockchan: select deadline elapsed")

	// ErrWouldBlock is returned by non-blocking operations ([Chan.TryPut],
	// [Chan.TryGet], [Select] with [WithDefault]) when nothing is ready.
	ErrWouldBlock = errors.New("lockchan: operation would block")
)

// Op identifies the direction of a channel operation.
type Op uint8

const (
	// OpRecv is a receive (Get or a [Recv] case).
	OpRecv Op = iota
	// OpSend is a send (Put or a [Send] case).
	OpSend
)

func (o Op) String() string {
	switch o {
	case OpRecv:
		return "recv"
	case OpSend:
		return "send"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// ClosedError reports that an operation found its channel closed: a send
// on a closed channel, or a receive on a channel that is closed and drained.
// Chan identifies which channel closed so multi-channel consumers can drop
// it from their select set.
type ClosedError struct {
	Chan Channel
	Op   Op
}

func (e *ClosedError) Error() string {
	if e.Op == OpSend {
		return fmt.Sprintf("lockchan: send on closed channel %s", e.Chan)
	}
	return fmt.Sprintf("lockchan: receive from closed channel %s", e.Chan)
}

// Is makes errors.Is(err, ErrClosed) succeed for every ClosedError.
func (e *ClosedError) Is(target error) bool {
	return target == ErrClosed
}

// ClosedChan extracts the closed channel from the first [*ClosedError] in
// err's chain. It returns false if there is none.
func ClosedChan(err error) (Channel, bool) {
	var ce *ClosedError
	if errors.As(err, &ce) {
		return ce.Chan, true
	}
	return nil, false
}
