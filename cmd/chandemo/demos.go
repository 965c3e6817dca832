package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/baxromumarov/lockchan"
	"github.com/baxromumarov/lockchan/internal/feed"
	"github.com/baxromumarov/lockchan/spawn"
	"github.com/sirupsen/logrus"
)

type env struct {
	out  io.Writer
	pace time.Duration
	log  logrus.FieldLogger
}

// nap sleeps for a random fraction of paces, or until ctx is done.
func (e *env) nap(ctx context.Context, paces float64) {
	t := time.NewTimer(time.Duration(rand.Float64() * paces * float64(e.pace)))
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (e *env) println(a ...any) {
	fmt.Fprintln(e.out, a...)
}

// newChan creates an unbuffered channel that logs through the demo logger.
func newChan[T any](e *env, name string) *lockchan.Chan[T] {
	return lockchan.New[T](0, lockchan.WithName(name), lockchan.WithLogger(e.log))
}

type demo struct {
	name  string
	about string
	run   func(e *env) error
}

var demos = []demo{
	{"fanin", "two talkers multiplexed by forwarding goroutines", fanInDemo},
	{"sequence", "fan-in where each talker waits for its turn", sequenceDemo},
	{"select", "fan-in with a single selecting goroutine", selectDemo},
	{"timeout", "give up on a talker that is too slow", timeoutDemo},
	{"rcvquit", "tell a talker to stop and wait for its goodbye", rcvQuitDemo},
	{"daisy", "pass a value through a chain of 10000 goroutines", daisyDemo},
	{"feed", "merge three polled feeds and close them later", feedDemo},
}

func lookup(name string) (demo, bool) {
	for _, d := range demos {
		if d.name == name {
			return d, true
		}
	}
	return demo{}, false
}

// session runs fn inside a task group whose background talkers are
// cancelled once fn returns.
func session(fn func(sp spawn.Spawner)) error {
	ctx, cancel := context.WithCancel(context.Background())
	err := spawn.Run(ctx, func(sp spawn.Spawner) {
		defer cancel()
		fn(sp)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// boring starts a talker that sends numbered messages until ctx is done.
func boring(sp spawn.Spawner, e *env, msg string, pause float64) *lockchan.Chan[string] {
	c := newChan[string](e, msg)
	sp.Go(msg, func(ctx context.Context) error {
		for i := 0; ; i++ {
			if c.PutContext(ctx, fmt.Sprintf("%s: %d", msg, i)) != nil {
				return nil
			}
			e.nap(ctx, pause)
		}
	})
	return c
}

// forward copies in to out until ctx is done.
func forward[T any](sp spawn.Spawner, in, out *lockchan.Chan[T]) {
	sp.Go("forward", func(ctx context.Context) error {
		for {
			v, err := in.GetContext(ctx)
			if err != nil {
				return nil
			}
			if out.PutContext(ctx, v) != nil {
				return nil
			}
		}
	})
}

func fanInDemo(e *env) error {
	return session(func(sp spawn.Spawner) {
		c := newChan[string](e, "fanin")
		forward(sp, boring(sp, e, "Joe", 0.2), c)
		forward(sp, boring(sp, e, "Ann", 0.2), c)
		for range 10 {
			v, _ := c.Get()
			e.println(v)
		}
		e.println("You're both boring; I'm leaving.")
	})
}

type message struct {
	str  string
	wait *lockchan.Chan[bool]
}

func sequenceDemo(e *env) error {
	talker := func(sp spawn.Spawner, msg string) *lockchan.Chan[message] {
		c := newChan[message](e, msg)
		waitForIt := newChan[bool](e, msg+"-wait")
		sp.Go(msg, func(ctx context.Context) error {
			for i := 0; ; i++ {
				if c.PutContext(ctx, message{fmt.Sprintf("%s: %d", msg, i), waitForIt}) != nil {
					return nil
				}
				e.nap(ctx, 0.2)
				if _, err := waitForIt.GetContext(ctx); err != nil {
					return nil
				}
			}
		})
		return c
	}

	return session(func(sp spawn.Spawner) {
		c := newChan[message](e, "sequence")
		forward(sp, talker(sp, "Joe"), c)
		forward(sp, talker(sp, "Ann"), c)
		for range 5 {
			msg1, _ := c.Get()
			e.println(msg1.str)
			msg2, _ := c.Get()
			e.println(msg2.str)
			_ = msg1.wait.Put(true)
			_ = msg2.wait.Put(true)
		}
		e.println("You're all boring; I'm leaving.")
	})
}

func selectDemo(e *env) error {
	return session(func(sp spawn.Spawner) {
		joe := boring(sp, e, "Joe", 1)
		ann := boring(sp, e, "Ann", 1)
		c := newChan[string](e, "select")

		sp.Go("fan-in", func(ctx context.Context) error {
			cases := []lockchan.Case{lockchan.Recv(joe), lockchan.Recv(ann)}
			for {
				sel, err := lockchan.Select(cases, lockchan.WithContext(ctx))
				if err != nil {
					return nil
				}
				if c.PutContext(ctx, sel.Value.(string)) != nil {
					return nil
				}
			}
		})

		for range 10 {
			v, _ := c.Get()
			e.println(v)
		}
		e.println("You're both boring; I'm leaving.")
	})
}

func timeoutDemo(e *env) error {
	return session(func(sp spawn.Spawner) {
		c := boring(sp, e, "Joe", 1.5)
		for {
			sel, err := lockchan.Select([]lockchan.Case{lockchan.Recv(c)}, lockchan.WithTimeout(e.pace))
			if errors.Is(err, lockchan.ErrTimeout) {
				e.println("You're too slow.")
				return
			}
			e.println(sel.Value)
		}
	})
}

func rcvQuitDemo(e *env) error {
	return session(func(sp spawn.Spawner) {
		quit := newChan[string](e, "quit")
		c := newChan[string](e, "Joe")
		sp.Go("Joe", func(ctx context.Context) error {
			for i := 0; ; i++ {
				e.nap(ctx, 1)
				sel, err := lockchan.Select([]lockchan.Case{
					lockchan.Recv(quit),
					lockchan.Send(c, fmt.Sprintf("Joe: %d", i)),
				}, lockchan.WithContext(ctx))
				if err != nil {
					return nil
				}
				if sel.Index == 0 {
					return quit.PutContext(ctx, "See you!")
				}
			}
		})

		for range rand.IntN(10) {
			v, _ := c.Get()
			e.println(v)
		}
		_ = quit.Put("Bye!")
		reply, _ := quit.Get()
		e.println("Joe says:", reply)
	})
}

const daisyLength = 10000

func daisyDemo(e *env) error {
	return spawn.Run(context.Background(), func(sp spawn.Spawner) {
		leftmost := lockchan.New[int](0)
		left := leftmost
		for range daisyLength {
			l, r := left, lockchan.New[int](0)
			sp.Go("link", func(context.Context) error {
				v, err := r.Get()
				if err != nil {
					return err
				}
				return l.Put(1 + v)
			})
			left = r
		}
		sp.Go("putter", func(context.Context) error {
			return left.Put(1)
		})

		v, _ := leftmost.Get()
		e.println(v)
	})
}

func feedDemo(e *env) error {
	domains := []string{"blog.golang.org", "googleblog.blogspot.com", "googledevelopers.blogspot.com"}
	subs := make([]feed.Feed, len(domains))
	for i, d := range domains {
		subs[i] = feed.Subscribe(feed.NewMockFetcher(d), feed.WithLogger(e.log))
	}
	merged := feed.Merge(subs, feed.WithLogger(e.log))

	var closeErr error
	closer := spawn.Go(func() {
		time.Sleep(3 * e.pace)
		closeErr = merged.Close()
	})

	for it := range merged.Updates().All() {
		e.println(fmt.Sprintf("%s -- %s", it.Channel, it.Title))
	}
	closer.Join(0)
	e.println("Closed:", closeErr)
	return closer.Err()
}
