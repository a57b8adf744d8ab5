// Package metrics exposes pairing and relay counters to Prometheus.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pairchat"

type Collector struct {
	connections    prometheus.Gauge
	waiting        prometheus.Gauge
	sessions       prometheus.Gauge
	matches        *prometheus.CounterVec
	teardowns      *prometheus.CounterVec
	busyRejections prometheus.Counter
	friendWrites   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Live connections in the registry.",
		}),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_waiting",
			Help:      "Participants waiting in the match queue.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Active chat sessions.",
		}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Pairings made, by kind (direct or random).",
		}, []string{"kind"}),
		teardowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_teardowns_total",
			Help:      "Sessions torn down, by reason.",
		}, []string{"reason"}),
		busyRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_busy_rejections_total",
			Help:      "Call offers rejected because the callee was already negotiating.",
		}),
		friendWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "friend_writes_total",
			Help:      "Friend store write-throughs, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(c.connections, c.waiting, c.sessions, c.matches, c.teardowns, c.busyRejections, c.friendWrites)
	return c
}

// ObserveState records the current size of the registry, queue and session table.
func (c *Collector) ObserveState(connections, waiting, sessions int) {
	if c == nil {
		return
	}
	c.connections.Set(float64(connections))
	c.waiting.Set(float64(waiting))
	c.sessions.Set(float64(sessions))
}

func (c *Collector) Match(direct bool) {
	if c == nil {
		return
	}
	kind := "random"
	if direct {
		kind = "direct"
	}
	c.matches.WithLabelValues(kind).Inc()
}

func (c *Collector) Teardown(reason string) {
	if c == nil {
		return
	}
	c.teardowns.WithLabelValues(reason).Inc()
}

func (c *Collector) BusyRejection() {
	if c == nil {
		return
	}
	c.busyRejections.Inc()
}

func (c *Collector) FriendWrite(ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	c.friendWrites.WithLabelValues(result).Inc()
}
