package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.Event("send-message")
	m.Event("send-message")
	m.MessagePersisted()
	m.Liked()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("send-message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesPersisted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.likes))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.persistenceFailures))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ConnectionOpened()
		m.Event("typing")
		m.SendDropped()
		m.PersistenceFailed()
	})
}
