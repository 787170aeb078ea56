// Package metrics exposes prometheus instruments for the circle transport.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's prometheus instruments.
type Metrics struct {
	connections         prometheus.Gauge
	events              *prometheus.CounterVec
	messagesPersisted   prometheus.Counter
	persistenceFailures prometheus.Counter
	likes               prometheus.Counter
	droppedSends        prometheus.Counter
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "serenai",
			Name:      "ws_connections",
			Help:      "Number of open websocket connections.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "serenai",
			Name:      "ws_events_total",
			Help:      "Inbound websocket events by type.",
		}, []string{"type"}),
		messagesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "serenai",
			Name:      "circle_messages_persisted_total",
			Help:      "Circle messages written to the store.",
		}),
		persistenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "serenai",
			Name:      "circle_persistence_failures_total",
			Help:      "Circle store writes that failed.",
		}),
		likes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "serenai",
			Name:      "circle_likes_total",
			Help:      "Like events applied.",
		}),
		droppedSends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "serenai",
			Name:      "ws_dropped_sends_total",
			Help:      "Outbound frames dropped because a send buffer was full or closed.",
		}),
	}
	reg.MustRegister(
		m.connections,
		m.events,
		m.messagesPersisted,
		m.persistenceFailures,
		m.likes,
		m.droppedSends,
	)
	return m
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

func (m *Metrics) Event(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

func (m *Metrics) MessagePersisted() {
	if m == nil {
		return
	}
	m.messagesPersisted.Inc()
}

func (m *Metrics) PersistenceFailed() {
	if m == nil {
		return
	}
	m.persistenceFailures.Inc()
}

func (m *Metrics) Liked() {
	if m == nil {
		return
	}
	m.likes.Inc()
}

func (m *Metrics) SendDropped() {
	if m == nil {
		return
	}
	m.droppedSends.Inc()
}
