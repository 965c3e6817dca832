package spawn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baxromumarov/lockchan"
)

// ErrPoolClosed is returned by [Pool.Submit] when the pool has been closed.
var ErrPoolClosed = errors.New("spawn: pool is closed")

// Pool is a fixed set of worker goroutines consuming tasks from a bounded
// [lockchan.Chan].
type Pool struct {
	tasks  *lockchan.Chan[func() error]
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	errMu sync.Mutex
	errs  []error

	submitted atomic.Int64
	completed atomic.Int64
	errored   atomic.Int64
	inFlight  atomic.Int64
	workers   int
}

// PoolStats is a point-in-time snapshot of pool activity.
type PoolStats struct {
	Submitted  int64 // total tasks submitted
	Completed  int64 // tasks finished (success + error)
	Errored    int64 // tasks that returned non-nil error or panicked
	InFlight   int64 // tasks currently executing
	QueueDepth int   // tasks waiting in the queue
	Workers    int   // worker count (fixed at creation)
}

// PoolOption configures a [Pool].
type PoolOption func(*poolConfig)

type poolConfig struct {
	queueSize       int
	onMetrics       func(PoolStats)
	metricsInterval time.Duration
	chanOpts        []lockchan.Option
}

// WithQueueSize sets the task queue capacity. Default is n * 2. A size of
// zero makes Submit hand tasks directly to an idle worker.
func WithQueueSize(size int) PoolOption {
	return func(c *poolConfig) {
		if size < 0 {
			panic("spawn: WithQueueSize requires non-negative size")
		}
		c.queueSize = size
	}
}

// WithPoolMetrics registers a callback receiving a [PoolStats] snapshot
// every interval.
//
// Panics if interval <= 0 or fn is nil.
func WithPoolMetrics(interval time.Duration, fn func(PoolStats)) PoolOption {
	if interval <= 0 {
		panic("spawn: WithPoolMetrics requires interval > 0")
	}
	if fn == nil {
		panic("spawn: WithPoolMetrics requires non-nil callback")
	}
	return func(c *poolConfig) {
		c.onMetrics = fn
		c.metricsInterval = interval
	}
}

// WithQueueOptions passes options to the pool's task queue channel, for
// example a name and an observer.
func WithQueueOptions(opts ...lockchan.Option) PoolOption {
	return func(c *poolConfig) {
		c.chanOpts = append(c.chanOpts, opts...)
	}
}

// NewPool creates a pool with n workers that run until [Pool.Close].
// Panics if n <= 0.
func NewPool(ctx context.Context, n int, opts ...PoolOption) *Pool {
	if n <= 0 {
		panic("spawn: NewPool requires n > 0")
	}

	cfg := poolConfig{queueSize: n * 2}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		tasks:   lockchan.New[func() error](cfg.queueSize, cfg.chanOpts...),
		ctx:     ctx,
		cancel:  cancel,
		workers: n,
	}

	p.wg.Add(n)
	for range n {
		go p.worker()
	}

	if cfg.onMetrics != nil {
		go func() {
			ticker := time.NewTicker(cfg.metricsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if p.closed.Load() {
						return
					}
					cfg.onMetrics(p.Stats())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for fn := range p.tasks.All() {
		p.runTask(fn)
	}
}

func (p *Pool) runTask(fn func() error) {
	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		p.completed.Add(1)
	}()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = newPanicError(r)
			}
		}()
		err = fn()
	}()
	if err != nil {
		p.errored.Add(1)
		p.errMu.Lock()
		p.errs = append(p.errs, err)
		p.errMu.Unlock()
	}
}

// Stats returns a point-in-time snapshot of pool activity.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Errored:    p.errored.Load(),
		InFlight:   p.inFlight.Load(),
		QueueDepth: p.tasks.Len(),
		Workers:    p.workers,
	}
}

// Submit queues fn, blocking while the queue is full.
// It returns [ErrPoolClosed] if the pool is closed and the context error if
// the pool's context is cancelled.
func (p *Pool) Submit(fn func() error) error {
	return p.account(p.tasks.PutContext(p.ctx, fn))
}

// TrySubmit queues fn only if that can happen without blocking.
func (p *Pool) TrySubmit(fn func() error) bool {
	return p.account(p.tasks.TryPut(fn)) == nil
}

func (p *Pool) account(err error) error {
	switch {
	case err == nil:
		p.submitted.Add(1)
		return nil
	case errors.Is(err, lockchan.ErrClosed):
		return ErrPoolClosed
	default:
		return err
	}
}

// Close stops accepting tasks, lets the workers drain the queue and waits
// for them. It returns the joined errors of all failed tasks.
// Safe to call multiple times.
func (p *Pool) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		_ = p.tasks.Close()
	}
	p.wg.Wait()
	p.cancel()

	p.errMu.Lock()
	defer p.errMu.Unlock()
	return errors.Join(p.errs...)
}
