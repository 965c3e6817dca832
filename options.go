package lockchan

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}()

type config struct {
	name     string
	logger   logrus.FieldLogger
	observer Observer
}

// Option configures a [Chan].
type Option func(*config)

func defaultConfig() config {
	return config{
		logger: discard,
	}
}

// WithName sets a human-readable name used in String, log fields and
// metrics labels. Unnamed channels are identified by their ID.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the logger used for lifecycle events (close, double
// close). The default discards everything.
// It panics if l is nil.
func WithLogger(l logrus.FieldLogger) Option {
	if l == nil {
		panic("lockchan: WithLogger requires non-nil logger")
	}
	return func(c *config) {
		c.logger = l
	}
}

// WithObserver registers o to receive operation events for the channel.
// It panics if o is nil.
func WithObserver(o Observer) Option {
	if o == nil {
		panic("lockchan: WithObserver requires non-nil observer")
	}
	return func(c *config) {
		c.observer = o
	}
}

type selectConfig struct {
	ctx         context.Context
	deadline    time.Time
	nonBlocking bool
}

// SelectOption configures a [Select] call.
type SelectOption func(*selectConfig)

// WithTimeout makes Select give up with [ErrTimeout] once d has elapsed.
func WithTimeout(d time.Duration) SelectOption {
	return func(c *selectConfig) {
		c.deadline = time.Now().Add(d)
	}
}

// WithDeadline makes Select give up with [ErrTimeout] at t.
func WithDeadline(t time.Time) SelectOption {
	return func(c *selectConfig) {
		c.deadline = t
	}
}

// WithContext makes Select give up with ctx.Err() once ctx is done.
// It panics if ctx is nil.
func WithContext(ctx context.Context) SelectOption {
	if ctx == nil {
		panic("lockchan: WithContext requires non-nil context")
	}
	return func(c *selectConfig) {
		c.ctx = ctx
	}
}

// WithDefault makes Select return [ErrWouldBlock] instead of blocking when
// no case is immediately ready, like a default clause.
func WithDefault() SelectOption {
	return func(c *selectConfig) {
		c.nonBlocking = true
	}
}
