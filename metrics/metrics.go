// Package metrics records widget events as prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Emitter turns widget events into metrics. It never fails the caller.
type Emitter struct {
	Events          *prometheus.CounterVec
	SendErrors      *prometheus.CounterVec
	AttachmentBytes prometheus.Histogram
	Extracted       prometheus.Counter
	SessionsActive  prometheus.Gauge

	logger *zap.Logger
}

func New(reg prometheus.Registerer, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)
	return &Emitter{
		Events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chatwidget",
				Name:      "events_total",
				Help:      "Widget events by name",
			},
			[]string{"event"},
		),
		SendErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chatwidget",
				Name:      "send_errors_total",
				Help:      "Failed chat requests by backend status (0 for transport errors)",
			},
			[]string{"status"},
		),
		AttachmentBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chatwidget",
			Name:      "attachment_bytes",
			Help:      "Size of accepted attachments",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 9),
		}),
		Extracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chatwidget",
			Name:      "extracted_sources_total",
			Help:      "Sources recovered from answer text",
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatwidget",
			Name:      "sessions_active",
			Help:      "Open widget sessions",
		}),
		logger: logger,
	}
}

func (e *Emitter) Emit(event string, payload map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("metric event dropped", zap.String("event", event), zap.Any("panic", r))
		}
	}()

	e.Events.WithLabelValues(event).Inc()
	switch event {
	case "message_send_error":
		e.SendErrors.WithLabelValues(cast.ToString(cast.ToInt(payload["status"]))).Inc()
	case "file_attached":
		e.AttachmentBytes.Observe(cast.ToFloat64(payload["size"]))
	case "sources_extracted":
		e.Extracted.Add(cast.ToFloat64(payload["count"]))
	}
}

func (e *Emitter) SessionOpened() { e.SessionsActive.Inc() }
func (e *Emitter) SessionClosed() { e.SessionsActive.Dec() }
