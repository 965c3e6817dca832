// Package lockchan provides a lock-based, goroutine-safe bounded channel
// and a multi-channel select built on top of it.
//
// Unlike native Go channels, a [Chan] reports misuse as errors instead of
// panics: sending on a closed channel returns a [*ClosedError], closing
// twice returns [ErrAlreadyClosed], and receiving past closure returns a
// [*ClosedError] that names the channel.
//
// # Channels
//
// [New] creates a channel with a buffer capacity; capacity 0 makes a
// rendezvous channel where every Put waits for a matching Get:
//
//	jobs := lockchan.New[string](16, lockchan.WithName("jobs"))
//	go func() {
//	    for _, j := range batch {
//	        _ = jobs.Put(j)
//	    }
//	    _ = jobs.Close()
//	}()
//	for j := range jobs.All() {
//	    handle(j)
//	}
//
// Values are delivered in FIFO order. Blocked senders and receivers are
// matched in the order they arrived. [Chan.TryPut] and [Chan.TryGet] never
// block; [Chan.PutContext] and [Chan.GetContext] respect cancellation.
//
// # Select
//
// [Select] waits on several channels at once and completes exactly one
// operation:
//
//	sel, err := lockchan.Select([]lockchan.Case{
//	    lockchan.Recv(results),
//	    lockchan.Send(requests, next),
//	}, lockchan.WithTimeout(time.Second))
//	switch {
//	case errors.Is(err, lockchan.ErrTimeout):
//	    // nothing happened
//	case errors.Is(err, lockchan.ErrClosed):
//	    // sel.Chan was closed
//	case sel.Index == 0:
//	    use(sel.Value.(Result))
//	}
//
// When several cases are ready, one is chosen uniformly at random so no
// case is starved. Select never holds more than one channel lock at a
// time; a per-call claim decides which channel wins, and every waiter a
// Select registers is removed before it returns.
//
// # Observability
//
// [WithLogger] attaches a logrus logger for lifecycle events and
// [WithObserver] attaches an [Observer]; the chanmetrics subpackage
// provides a Prometheus implementation.
package lockchan
