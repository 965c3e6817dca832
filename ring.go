package lockchan

// ring is a fixed-capacity FIFO backing a buffered Chan. It is not safe for
// concurrent use; the owning channel's mutex guards it.
type ring[T any] struct {
	buf  []T
	head int
	n    int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) len() int { return r.n }

func (r *ring[T]) cap() int { return len(r.buf) }

func (r *ring[T]) empty() bool { return r.n == 0 }

func (r *ring[T]) full() bool { return r.n == len(r.buf) }

// push appends v at the tail. It panics if the ring is full.
func (r *ring[T]) push(v T) {
	if r.full() {
		panic("lockchan: push on full ring")
	}
	r.buf[(r.head+r.n)%len(r.buf)] = v
	r.n++
}

// pop removes and returns the oldest item. It panics if the ring is empty.
func (r *ring[T]) pop() T {
	if r.empty() {
		panic("lockchan: pop on empty ring")
	}
	var zero T
	v := r.buf[r.head]
	r.buf[r.head] = zero // release the reference for the GC
	r.head = (r.head + 1) % len(r.buf)
	r.n--
	return v
}
