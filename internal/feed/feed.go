// Package feed implements subscriptions to polled item sources and a
// merge of several subscriptions into one stream. Each subscription is a
// single goroutine that decides, in one Select, between quitting, fetching
// more items and delivering the oldest pending item.
package feed

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/baxromumarov/lockchan"
	"github.com/sirupsen/logrus"
)

// ErrClosed is returned by Close on a feed that was already closed.
var ErrClosed = errors.New("feed: already closed")

// Item is one entry of a feed.
type Item struct {
	Channel string
	Title   string
	GUID    string
}

// Fetcher fetches the items available from a source and reports when it
// should be asked again.
type Fetcher interface {
	Fetch(ctx context.Context) (items []Item, next time.Time, err error)
}

// Feed is a stream of items that runs until closed.
type Feed interface {
	// Updates returns the channel delivering items. It is closed by Close.
	Updates() *lockchan.Chan[Item]
	// Close stops the feed and returns the last fetch error, if any.
	Close() error
}

type config struct {
	logger     logrus.FieldLogger
	maxPending int
	errBackoff time.Duration
}

// Option configures a subscription or a merged feed.
type Option func(*config)

func defaultConfig() config {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return config{
		logger:     l,
		maxPending: 10,
		errBackoff: 10 * time.Second,
	}
}

// WithLogger sets the logger for fetch failures and shutdown.
// It panics if l is nil.
func WithLogger(l logrus.FieldLogger) Option {
	if l == nil {
		panic("feed: WithLogger requires non-nil logger")
	}
	return func(c *config) {
		c.logger = l
	}
}

// WithMaxPending bounds the number of fetched items waiting for delivery.
// Fetching pauses while the bound is reached. Default is 10.
func WithMaxPending(n int) Option {
	if n <= 0 {
		panic("feed: WithMaxPending requires n > 0")
	}
	return func(c *config) {
		c.maxPending = n
	}
}

// WithErrorBackoff sets how long to wait before fetching again after a
// failed fetch. Default is 10s.
func WithErrorBackoff(d time.Duration) Option {
	if d <= 0 {
		panic("feed: WithErrorBackoff requires d > 0")
	}
	return func(c *config) {
		c.errBackoff = d
	}
}
