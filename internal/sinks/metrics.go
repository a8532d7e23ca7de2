package sinks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/lumicore/internal/device"
)

const metricsNamespace = "lumicore"

// Metrics counts device events and exposes registry and publisher gauges
// to Prometheus.
type Metrics struct {
	events *prometheus.CounterVec // by event
	params *prometheus.GaugeVec   // by device
}

// NewMetrics registers lumicore's collectors with reg. devices reports
// the number of registered devices for the devices gauge.
func NewMetrics(reg prometheus.Registerer, devices func() int) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "device",
			Name:      "events_total",
			Help:      "Device events delivered to sinks",
		}, []string{"event"}), // added, params, metadata, removed

		params: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "device",
			Name:      "params",
			Help:      "Number of parameters held by a device",
		}, []string{"device"}),
	}

	collectors := []prometheus.Collector{
		m.events,
		m.params,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "devices",
			Help:      "Number of registered devices",
		}, func() float64 { return float64(devices()) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WatchPublisher exposes a StatePublisher's counters.
func (m *Metrics) WatchPublisher(reg prometheus.Registerer, p *StatePublisher) error {
	counter := func(name, help string, fn func() uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "mqtt",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(fn()) })
	}
	for _, c := range []prometheus.Collector{
		counter("published_total", "State messages published", p.Published),
		counter("publish_failures_total", "State messages the broker rejected", p.Failed),
		counter("dropped_total", "State messages dropped on a full queue", p.Dropped),
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Name implements Sink.
func (m *Metrics) Name() string { return "metrics" }

// DeviceChanged implements Sink.
func (m *Metrics) DeviceChanged(d *device.Device, ev device.Event) {
	m.events.WithLabelValues(ev.String()).Inc()
	if ev == device.EventRemoved {
		m.params.DeleteLabelValues(d.ID())
		return
	}
	m.params.WithLabelValues(d.ID()).Set(float64(d.NumParams()))
}
