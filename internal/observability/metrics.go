package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bot.
type Metrics struct {
	Messages      *prometheus.CounterVec
	Outcomes      *prometheus.CounterVec
	RemoteErrors  *prometheus.CounterVec
	AuthEvents    *prometheus.CounterVec
	HandleLatency prometheus.Histogram
	WSConnections prometheus.Gauge
}

// NewMetrics registers the instruments with reg. A nil reg uses the
// default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Handled chat messages by command.",
		}, []string{"command"}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_outcomes_total",
			Help:      "Handled chat messages by outcome.",
		}, []string{"outcome"}),
		RemoteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_errors_total",
			Help:      "Task service failures by command and code.",
		}, []string{"command", "code"}),
		AuthEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Authorization handshake events by type.",
		}, []string{"event"}),
		HandleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handle_latency_ms",
			Help:      "Time to produce a reply in milliseconds.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open chat websocket connections.",
		}),
	}
}

func (m *Metrics) ObserveHandle(command, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(command).Inc()
	m.Outcomes.WithLabelValues(outcome).Inc()
	m.HandleLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) RemoteError(command, code string) {
	if m == nil {
		return
	}
	m.RemoteErrors.WithLabelValues(command, code).Inc()
}

func (m *Metrics) AuthEvent(event string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event).Inc()
}

// MetricsHandler serves the metrics of g, or of the default registry
// when g is nil.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ConnOpened and ConnClosed track open chat websocket connections.
func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
