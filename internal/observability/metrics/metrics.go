// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meeting_orchestrator"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Ingress connection metrics
	ConnectionsTotal   prometheus.Counter
	ConnectionsActive  prometheus.Gauge
	ConnectionsFailed  prometheus.Counter
	ConnectionDuration prometheus.Histogram

	// Audio metrics
	AudioFramesReceived prometheus.Counter
	AudioBytesReceived  prometheus.Counter

	// Queue publish metrics
	QueuePublishTotal   *prometheus.CounterVec
	QueuePublishErrors  *prometheus.CounterVec
	QueuePublishLatency *prometheus.HistogramVec

	// Transcript subscriber metrics
	TranscriptsPersisted prometheus.Counter
	TranscriptsDropped   *prometheus.CounterVec

	// Agent metrics
	IntentsRouted    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	DispatchErrors   prometheus.Counter
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ConnectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of ingress stream connections accepted",
		}),
		ConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently active ingress stream connections",
		}),
		ConnectionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_failed_total",
			Help:      "Total number of rejected or failed ingress connections",
		}),
		ConnectionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connection_duration_seconds",
			Help:      "Duration of ingress stream connections in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800, 3600},
		}),

		AudioFramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total audio frames received across all connections",
		}),
		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received across all connections",
		}),

		QueuePublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_publish_total",
			Help:      "Total messages published to the broker",
		}, []string{"topic"}),
		QueuePublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_publish_errors_total",
			Help:      "Total failed broker publishes",
		}, []string{"topic"}),
		QueuePublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_publish_latency_seconds",
			Help:      "Latency of broker publishes in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),

		TranscriptsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_persisted_total",
			Help:      "Total transcript fragments persisted",
		}),
		TranscriptsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_dropped_total",
			Help:      "Total inbound transcript messages dropped",
		}, []string{"reason"}),

		IntentsRouted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_routed_total",
			Help:      "Total chat messages routed, by resolved intent",
		}, []string{"intent"}),
		DispatchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of action dispatches in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"intent"}),
		DispatchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_errors_total",
			Help:      "Total dispatches that ended in an unexpected failure",
		}),
	}
}

// RecordConnectionStart records a new ingress connection.
func (m *Metrics) RecordConnectionStart() {
	m.ConnectionsTotal.Inc()
	m.ConnectionsActive.Inc()
}

// RecordConnectionEnd records the end of an ingress connection.
func (m *Metrics) RecordConnectionEnd(duration time.Duration) {
	m.ConnectionsActive.Dec()
	m.ConnectionDuration.Observe(duration.Seconds())
}

// RecordAudioFrame records one received audio frame.
func (m *Metrics) RecordAudioFrame(bytes int) {
	m.AudioFramesReceived.Inc()
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordQueuePublish records a broker publish attempt.
func (m *Metrics) RecordQueuePublish(topic string, err error, seconds float64) {
	m.QueuePublishTotal.WithLabelValues(topic).Inc()
	m.QueuePublishLatency.WithLabelValues(topic).Observe(seconds)
	if err != nil {
		m.QueuePublishErrors.WithLabelValues(topic).Inc()
	}
}

// RecordIntent records a routed intent.
func (m *Metrics) RecordIntent(intent string) {
	m.IntentsRouted.WithLabelValues(intent).Inc()
}

// RecordDispatch records an action dispatch.
func (m *Metrics) RecordDispatch(intent string, seconds float64) {
	m.DispatchDuration.WithLabelValues(intent).Observe(seconds)
}
