// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for the echo event loop.
// Collectors live on a private prometheus registry so several servers can
// coexist in one process.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hioload_echo"

// Metrics holds the server's prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	Accepted      prometheus.Counter
	AcceptErrors  prometheus.Counter
	Closed        *prometheus.CounterVec
	BytesReceived prometheus.Counter
	BytesSent     prometheus.Counter
	ShortWrites   prometheus.Counter
	OpenConns     prometheus.Gauge
	Wakeups       prometheus.Counter
}

// Close reasons used as the "reason" label of Closed.
const (
	ReasonPeer     = "peer"
	ReasonError    = "error"
	ReasonShutdown = "shutdown"
)

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Connections accepted by the listener.",
		}),
		AcceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accept_errors_total",
			Help:      "Failed accept calls, excluding would-block.",
		}),
		Closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_total",
			Help:      "Connections closed, by reason.",
		}, []string{"reason"}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "received_bytes_total",
			Help:      "Bytes read from clients.",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sent_bytes_total",
			Help:      "Bytes echoed back to clients.",
		}),
		ShortWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "short_writes_total",
			Help:      "Writes the socket accepted only partially.",
		}),
		OpenConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_open",
			Help:      "Client connections currently registered.",
		}),
		Wakeups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_wakeups_total",
			Help:      "Returns from the readiness wait.",
		}),
	}
	m.registry.MustRegister(
		m.Accepted,
		m.AcceptErrors,
		m.Closed,
		m.BytesReceived,
		m.BytesSent,
		m.ShortWrites,
		m.OpenConns,
		m.Wakeups,
	)
	return m
}

// Registry exposes the collectors for scraping.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// GetSnapshot returns the current metric values keyed by metric name.
func (m *Metrics) GetSnapshot() map[string]any {
	out := make(map[string]any)
	families, err := m.registry.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		var total float64
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				total += metric.GetGauge().GetValue()
			}
		}
		out[mf.GetName()] = total
	}
	return out
}
