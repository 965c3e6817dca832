package spawn

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Policy determines how a [Group] handles errors from its tasks.
type Policy int

const (
	// FailFast cancels all sibling tasks when the first error occurs.
	// [Group.Wait] returns the first error encountered.
	FailFast Policy = iota

	// Collect gathers all errors without cancelling siblings.
	// [Group.Wait] returns all errors joined via [errors.Join].
	Collect
)

// TaskInfo provides metadata about a running task.
// It is passed to the hooks registered via [WithOnStart] and [WithOnDone].
type TaskInfo struct {
	Name string
}

type config struct {
	policy     Policy
	limit      int
	panicAsErr bool
	onStart    func(TaskInfo)
	onDone     func(TaskInfo, error, time.Duration)
	logger     logrus.FieldLogger
}

// Option configures a [Group].
type Option func(*config)

func defaultConfig() config {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return config{
		policy: FailFast,
		logger: l,
	}
}

// WithPolicy sets the error handling policy for the group.
// It panics if p is not a known Policy value.
func WithPolicy(p Policy) Option {
	return func(c *config) {
		switch p {
		case FailFast, Collect:
			c.policy = p
		default:
			panic("spawn: invalid policy")
		}
	}
}

// WithLimit sets the maximum number of tasks executing concurrently.
// Tasks beyond the limit wait for a slot or for the group's context to be
// cancelled.
//
// A limit of zero (the default) means unlimited concurrency.
// WithLimit panics if n is negative.
func WithLimit(n int) Option {
	return func(c *config) {
		if n < 0 {
			panic("spawn: limit must be non-negative")
		}
		c.limit = n
	}
}

// WithPanicAsError converts task panics to [*PanicError] values returned as
// regular errors, instead of re-raising them in [Group.Wait].
func WithPanicAsError() Option {
	return func(c *config) {
		c.panicAsErr = true
	}
}

// WithOnStart registers a hook invoked in the task's goroutine before the
// task function runs.
func WithOnStart(fn func(TaskInfo)) Option {
	return func(c *config) {
		c.onStart = fn
	}
}

// WithOnDone registers a hook invoked in the task's goroutine after the
// task function returns, with its error and wall-clock duration.
func WithOnDone(fn func(TaskInfo, error, time.Duration)) Option {
	return func(c *config) {
		c.onDone = fn
	}
}

// WithLogger sets the logger used to report task failures and panics.
// It panics if l is nil.
func WithLogger(l logrus.FieldLogger) Option {
	if l == nil {
		panic("spawn: WithLogger requires non-nil logger")
	}
	return func(c *config) {
		c.logger = l
	}
}
