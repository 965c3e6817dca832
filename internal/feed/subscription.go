package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/baxromumarov/lockchan"
	"github.com/baxromumarov/lockchan/spawn"
	"github.com/sirupsen/logrus"
)

// Subscription polls a Fetcher and delivers its items, skipping items
// already seen.
type Subscription struct {
	fetcher Fetcher
	cfg     config
	updates *lockchan.Chan[Item]
	quit    *lockchan.Chan[*lockchan.Chan[error]]
	loop    *spawn.Handle

	closeOnce sync.Once
	closeErr  error
}

var _ Feed = (*Subscription)(nil)

// Subscribe starts polling f. The subscription runs until Close.
func Subscribe(f Fetcher, opts ...Option) *Subscription {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Subscription{
		fetcher: f,
		cfg:     cfg,
		updates: lockchan.New[Item](0, lockchan.WithName("feed-updates")),
		quit:    lockchan.New[*lockchan.Chan[error]](0),
	}
	s.loop = spawn.Go(s.run)
	return s
}

// Updates returns the channel delivering items.
func (s *Subscription) Updates() *lockchan.Chan[Item] { return s.updates }

// Close stops the subscription, waits for its goroutine and returns the
// error of the last fetch. Later calls return ErrClosed.
func (s *Subscription) Close() error {
	err := ErrClosed
	s.closeOnce.Do(func() {
		errc := lockchan.New[error](0)
		if perr := s.quit.Put(errc); perr != nil {
			s.closeErr = perr
		} else {
			s.closeErr, _ = errc.Get()
		}
		s.loop.Join(0)
		if perr := s.loop.Err(); perr != nil {
			s.closeErr = errors.Join(s.closeErr, perr)
		}
		err = s.closeErr
	})
	return err
}

func (s *Subscription) run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		pending []Item
		next    = time.Now()
		err     error
		seen    = make(map[string]bool)
		dropped bool
	)

	for {
		cases := []lockchan.Case{lockchan.Recv(s.quit)}
		if len(pending) > 0 {
			cases = append(cases, lockchan.Send(s.updates, pending[0]))
		}

		// Fetching is enabled only while there is room for more items.
		var opts []lockchan.SelectOption
		if len(pending) < s.cfg.maxPending {
			opts = append(opts, lockchan.WithDeadline(next))
		}

		sel, serr := lockchan.Select(cases, opts...)
		switch {
		case errors.Is(serr, lockchan.ErrTimeout):
			var fetched []Item
			fetched, next, err = s.fetcher.Fetch(ctx)
			if err != nil {
				next = time.Now().Add(s.cfg.errBackoff)
				s.cfg.logger.WithError(err).Warn("fetch failed")
				continue
			}
			if next.IsZero() {
				next = time.Now()
			}
			for _, it := range fetched {
				if !seen[it.GUID] && !dropped {
					seen[it.GUID] = true
					pending = append(pending, it)
				}
			}
		case serr != nil:
			// The consumer closed Updates. Keep polling until Close but
			// stop queueing items nobody can receive.
			s.cfg.logger.Debug("updates closed by consumer")
			pending = nil
			dropped = true
		case sel.Index == 0:
			_ = s.updates.Close()
			errc := sel.Value.(*lockchan.Chan[error])
			if perr := errc.Put(err); perr != nil {
				s.cfg.logger.WithError(perr).Debug("close reply dropped")
			}
			s.cfg.logger.WithFields(logrus.Fields{
				"pending": len(pending),
			}).Debug("subscription closed")
			return
		default:
			pending = pending[1:]
		}
	}
}
