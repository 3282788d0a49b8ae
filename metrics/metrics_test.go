package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEmit(t *testing.T) {
	e := New(prometheus.NewRegistry(), nil)

	e.Emit("file_attached", map[string]any{"name": "a.pdf", "size": 2048})
	e.Emit("message_send_error", map[string]any{"error": "boom", "status": 502})
	e.Emit("message_send_error", map[string]any{"error": "dial"})
	e.Emit("sources_extracted", map[string]any{"count": 3})

	assert.Equal(t, 1.0, testutil.ToFloat64(e.Events.WithLabelValues("file_attached")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.Events.WithLabelValues("message_send_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.SendErrors.WithLabelValues("502")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.SendErrors.WithLabelValues("0")))
	assert.Equal(t, 3.0, testutil.ToFloat64(e.Extracted))
}

func TestEmitSwallowsBadPayloads(t *testing.T) {
	e := New(prometheus.NewRegistry(), nil)

	assert.NotPanics(t, func() {
		e.Emit("sources_extracted", map[string]any{"count": -1})
		e.Emit("file_attached", nil)
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(e.Events.WithLabelValues("sources_extracted")))
}

func TestSessionsGauge(t *testing.T) {
	e := New(prometheus.NewRegistry(), nil)
	e.SessionOpened()
	e.SessionOpened()
	e.SessionClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(e.SessionsActive))
}
