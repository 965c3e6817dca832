// Group runs named tasks in goroutines with a shared context, a common
// error policy and an optional concurrency limit, and waits for all of them
// before returning. It is the goroutine-starting collaborator for code built
// on lockchan channels: tasks typically receive the channels they work on
// through their closures.
//
// A Group must be created via New() and finalized by calling Wait(), or
// used through Run which does both.
//
// Error handling is configurable:
//   - FailFast: the first error cancels the remaining tasks.
//   - Collect: all errors are gathered and joined.
//
// Panics in tasks are captured with their stack and either converted to
// errors (WithPanicAsError) or re-raised from Wait.
package spawn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/baxromumarov/lockchan"
	"github.com/sirupsen/logrus"
)

// TaskFunc is the signature of a task. It receives the group's context,
// cancelled when the group ends, and a Spawner for sub-tasks.
type TaskFunc func(ctx context.Context, sp Spawner) error

type group struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	cfg    config

	wg sync.WaitGroup

	errOnce  sync.Once
	firstErr error

	errMu sync.Mutex
	errs  []error

	panicMu sync.Mutex
	panics  []*PanicError

	// slots holds one token per running task when a limit is set.
	slots *lockchan.Chan[struct{}]

	finOnce  sync.Once
	finErr   error
	finPanic *PanicError

	spawned atomic.Int64
	active  atomic.Int64
}

// Run creates a [Group], invokes fn with its root [Spawner], then waits for
// every spawned task. It returns the aggregated error according to the
// configured [Policy] (default [FailFast]).
func Run(parent context.Context, fn func(sp Spawner), opts ...Option) (err error) {
	g, sp := New(parent, opts...)

	defer func() {
		runPanic := recover()

		g.root.close()
		waitErr, waitPanic := g.g.finalize()

		// A panic in fn takes priority over task panics.
		if runPanic != nil {
			panic(runPanic)
		}
		if waitPanic != nil {
			panic(waitPanic)
		}
		err = waitErr
	}()

	fn(sp)
	return nil
}

// finalize waits for all tasks and computes the aggregated result once.
func (g *group) finalize() (error, *PanicError) {
	g.finOnce.Do(func() {
		g.wg.Wait()

		cancelledExternally := g.ctx.Err() != nil
		g.cancel(nil)

		if !g.cfg.panicAsErr {
			g.panicMu.Lock()
			if len(g.panics) > 0 {
				g.finPanic = g.panics[0]
			}
			g.panicMu.Unlock()
		}

		switch g.cfg.policy {
		case FailFast:
			g.finErr = g.firstErr
		case Collect:
			g.errMu.Lock()
			g.finErr = errors.Join(g.errs...)
			g.errMu.Unlock()
		}

		if g.finErr == nil && cancelledExternally {
			g.finErr = g.ctx.Err()
		}
	})
	return g.finErr, g.finPanic
}

// exec runs fn with panic recovery.
func (g *group) exec(info TaskInfo, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe := newPanicError(r)
			g.cfg.logger.WithFields(logrus.Fields{
				"task":  info.Name,
				"panic": r,
			}).Error("task panicked")
			if g.cfg.panicAsErr {
				err = pe
				return
			}
			g.panicMu.Lock()
			g.panics = append(g.panics, pe)
			g.panicMu.Unlock()
			g.cancel(pe)
		}
	}()
	return fn(g.ctx)
}

func (g *group) recordError(info TaskInfo, err error) {
	te := &TaskError{Task: info, Err: err}
	g.cfg.logger.WithFields(logrus.Fields{
		"task":  info.Name,
		"error": err,
	}).Debug("task failed")

	switch g.cfg.policy {
	case FailFast:
		g.errOnce.Do(func() {
			g.firstErr = te
			g.cancel(err)
		})
	case Collect:
		g.errMu.Lock()
		g.errs = append(g.errs, te)
		g.errMu.Unlock()
	}
}

// acquire takes a concurrency slot, giving up if the group is cancelled.
func (g *group) acquire() error {
	if g.slots == nil {
		return nil
	}
	return g.slots.PutContext(g.ctx, struct{}{})
}

func (g *group) release() {
	if g.slots != nil {
		_, _ = g.slots.TryGet()
	}
}

// Group exposes lifecycle and observability methods for a set of tasks.
// Create one via [New]; finalize with [Group.Wait].
type Group struct {
	g        *group
	root     *spawner
	once     sync.Once
	result   error
	panicVal *PanicError
}

// New creates a [Group] and its root [Spawner]. The caller must call
// [Group.Wait]. Prefer [Run] unless the Spawner has to cross function
// boundaries.
func New(parent context.Context, opts ...Option) (*Group, Spawner) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancelCause(parent)
	g := &group{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
	}
	if cfg.limit > 0 {
		g.slots = lockchan.New[struct{}](cfg.limit, lockchan.WithName("spawn-slots"))
	}

	root := newSpawner(g)
	return &Group{g: g, root: root}, root
}

// Wait closes the root [Spawner], waits for every task and returns the
// aggregated error. If a task panicked and [WithPanicAsError] was not set,
// Wait re-panics with the captured [*PanicError].
//
// Wait is idempotent.
func (gr *Group) Wait() error {
	gr.once.Do(func() {
		gr.root.close()
		gr.result, gr.panicVal = gr.g.finalize()
	})
	if gr.panicVal != nil {
		panic(gr.panicVal)
	}
	return gr.result
}

// Cancel cancels the group's context with the given cause.
func (gr *Group) Cancel(err error) {
	gr.g.cancel(err)
}

// Context returns the context handed to every task.
func (gr *Group) Context() context.Context {
	return gr.g.ctx
}

// ActiveTasks returns the number of tasks currently executing.
func (gr *Group) ActiveTasks() int64 {
	return gr.g.active.Load()
}

// TotalSpawned returns the number of tasks spawned so far.
func (gr *Group) TotalSpawned() int64 {
	return gr.g.spawned.Load()
}
