package spawn

import (
	"context"
	"sync/atomic"
	"time"
)

// Spawner starts tasks inside a [Group].
type Spawner interface {
	// Spawn starts fn in a new goroutine. fn receives a child Spawner that
	// is valid only while fn runs.
	Spawn(name string, fn TaskFunc)

	// Go is Spawn for tasks that never start sub-tasks.
	Go(name string, fn func(ctx context.Context) error)
}

type spawner struct {
	g    *group
	open atomic.Bool
}

func newSpawner(g *group) *spawner {
	sp := &spawner{g: g}
	sp.open.Store(true)
	return sp
}

func (sp *spawner) Go(name string, fn func(ctx context.Context) error) {
	sp.Spawn(name, func(ctx context.Context, _ Spawner) error {
		return fn(ctx)
	})
}

func (sp *spawner) Spawn(name string, fn TaskFunc) {
	// Checked before wg.Add so finalize's wg.Wait cannot race a late task.
	if !sp.open.Load() {
		panic("spawn: Spawn called after group shutdown")
	}

	g := sp.g
	g.wg.Add(1)
	g.spawned.Add(1)
	info := TaskInfo{Name: name}

	go func() {
		defer g.wg.Done()

		if err := g.acquire(); err != nil {
			// Cancelled while waiting for a slot; the cause is recorded already.
			return
		}
		defer g.release()

		if g.ctx.Err() != nil {
			return
		}

		child := newSpawner(g)
		g.active.Add(1)
		start := time.Now()
		err := g.exec(info, func(ctx context.Context) error {
			if g.cfg.onStart != nil {
				g.cfg.onStart(info)
			}
			return fn(ctx, child)
		})
		elapsed := time.Since(start)
		g.active.Add(-1)
		child.close()

		if g.cfg.onDone != nil {
			g.cfg.onDone(info, err, elapsed)
		}
		if err != nil {
			g.recordError(info, err)
		}
	}()
}

func (sp *spawner) close() {
	sp.open.Store(false)
}
