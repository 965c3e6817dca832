// Package chanmetrics exports lockchan channel activity as Prometheus
// metrics. A [Collector] is a [lockchan.Observer]: attach it to channels
// with lockchan.WithObserver and register it once with a registry.
//
//	m := chanmetrics.NewCollector("app")
//	prometheus.MustRegister(m)
//	jobs := lockchan.New[Job](64, lockchan.WithName("jobs"), lockchan.WithObserver(m))
package chanmetrics

import (
	"github.com/baxromumarov/lockchan"
	"github.com/prometheus/client_golang/prometheus"
)

// Unnamed is the channel label used for channels created without
// lockchan.WithName.
const Unnamed = "unnamed"

// Collector counts sends, receives, parked waits and closes per channel
// name.
type Collector struct {
	sends    *prometheus.CounterVec
	receives *prometheus.CounterVec
	waits    *prometheus.CounterVec
	closes   *prometheus.CounterVec
}

var (
	_ lockchan.Observer    = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)

// NewCollector creates a Collector whose metric names start with namespace.
// An empty namespace yields bare lockchan_* names.
func NewCollector(namespace string) *Collector {
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lockchan",
			Name:      name,
			Help:      help,
		}
	}
	return &Collector{
		sends: prometheus.NewCounterVec(
			opts("sends_total", "Completed sends per channel."),
			[]string{"channel"},
		),
		receives: prometheus.NewCounterVec(
			opts("receives_total", "Values received per channel."),
			[]string{"channel"},
		),
		waits: prometheus.NewCounterVec(
			opts("waits_total", "Operations that had to park, per channel and direction."),
			[]string{"channel", "op"},
		),
		closes: prometheus.NewCounterVec(
			opts("closes_total", "Channel closes."),
			[]string{"channel"},
		),
	}
}

// Describe implements prometheus.Collector.
func (m *Collector) Describe(ch chan<- *prometheus.Desc) {
	m.sends.Describe(ch)
	m.receives.Describe(ch)
	m.waits.Describe(ch)
	m.closes.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Collector) Collect(ch chan<- prometheus.Metric) {
	m.sends.Collect(ch)
	m.receives.Collect(ch)
	m.waits.Collect(ch)
	m.closes.Collect(ch)
}

func (m *Collector) ObserveSend(c lockchan.Channel) {
	m.sends.WithLabelValues(label(c)).Inc()
}

func (m *Collector) ObserveRecv(c lockchan.Channel) {
	m.receives.WithLabelValues(label(c)).Inc()
}

func (m *Collector) ObserveWait(c lockchan.Channel, op lockchan.Op) {
	m.waits.WithLabelValues(label(c), op.String()).Inc()
}

func (m *Collector) ObserveClose(c lockchan.Channel) {
	m.closes.WithLabelValues(label(c)).Inc()
}

func label(c lockchan.Channel) string {
	if name := c.Name(); name != "" {
		return name
	}
	return Unnamed
}
