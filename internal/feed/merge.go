package feed

import (
	"errors"
	"slices"
	"sync"

	"github.com/baxromumarov/lockchan"
	"github.com/baxromumarov/lockchan/spawn"
)

// Merged combines the items of several feeds into one stream.
type Merged struct {
	feeds   []Feed
	cfg     config
	updates *lockchan.Chan[Item]
	quit    *lockchan.Chan[*lockchan.Chan[error]]
	loop    *spawn.Handle

	closeOnce sync.Once
}

var _ Feed = (*Merged)(nil)

// Merge starts forwarding the items of feeds. Closing the merged feed
// closes every input feed.
func Merge(feeds []Feed, opts ...Option) *Merged {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	m := &Merged{
		feeds:   feeds,
		cfg:     cfg,
		updates: lockchan.New[Item](0, lockchan.WithName("merged-updates")),
		quit:    lockchan.New[*lockchan.Chan[error]](0),
	}
	m.loop = spawn.Go(m.run)
	return m
}

// Updates returns the channel delivering the merged items.
func (m *Merged) Updates() *lockchan.Chan[Item] { return m.updates }

// Close closes every input feed and returns their errors joined.
// Later calls return ErrClosed.
func (m *Merged) Close() error {
	err := ErrClosed
	m.closeOnce.Do(func() {
		errc := lockchan.New[error](0)
		if perr := m.quit.Put(errc); perr != nil {
			err = perr
			return
		}
		err, _ = errc.Get()
		m.loop.Join(0)
	})
	return err
}

func (m *Merged) run() {
	quit := lockchan.Recv(m.quit)
	inputs := make([]lockchan.Case, 0, len(m.feeds)+1)
	for _, f := range m.feeds {
		inputs = append(inputs, lockchan.Recv(f.Updates()))
	}
	inputs = append(inputs, quit)

	for {
		sel, err := lockchan.Select(inputs)
		if errors.Is(err, lockchan.ErrClosed) {
			// An input feed ended on its own; stop listening to it.
			inputs = slices.Delete(inputs, sel.Index, sel.Index+1)
			continue
		}
		if sel.Index == len(inputs)-1 {
			m.shutdown(sel.Value.(*lockchan.Chan[error]))
			return
		}

		item := sel.Value.(Item)
		sel, _ = lockchan.Select([]lockchan.Case{quit, lockchan.Send(m.updates, item)})
		if sel.Index == 0 {
			m.shutdown(sel.Value.(*lockchan.Chan[error]))
			return
		}
	}
}

func (m *Merged) shutdown(errc *lockchan.Chan[error]) {
	errs := make([]error, 0, len(m.feeds))
	for _, f := range m.feeds {
		errs = append(errs, f.Close())
	}
	_ = m.updates.Close()
	m.cfg.logger.WithField("feeds", len(m.feeds)).Debug("merged feed closed")
	_ = errc.Put(errors.Join(errs...))
}
