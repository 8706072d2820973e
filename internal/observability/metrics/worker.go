package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	notifyTotal    *prometheus.CounterVec
	notifyDuration *prometheus.HistogramVec
	notifyInFlight prometheus.Gauge
	queueLag       *prometheus.HistogramVec
	breakerState   *prometheus.GaugeVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	notifyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "feedback_notify_total",
			Help:      "Total feedback notifications handled by status.",
		},
		[]string{"service", "status"},
	)
	notifyDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "feedback_notify_duration_seconds",
			Help:      "Feedback notification duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	notifyInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "feedback_notify_in_flight",
			Help:      "Number of in-flight feedback notifications.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between feedback submission and notification start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	breakerState := newBreakerStateGauge()

	registry.MustRegister(notifyTotal, notifyDuration, notifyInFlight, queueLag, breakerState)

	return &WorkerMetrics{
		registry:       registry,
		notifyTotal:    notifyTotal,
		notifyDuration: notifyDuration,
		notifyInFlight: notifyInFlight,
		queueLag:       queueLag,
		breakerState:   breakerState,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartNotification() {
	m.notifyInFlight.Inc()
}

func (m *WorkerMetrics) FinishNotification(service string, duration time.Duration, err error) {
	m.notifyInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.notifyTotal.WithLabelValues(service, status).Inc()
	m.notifyDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) BreakerStateChanged(operation string, _, to gobreaker.State) {
	m.breakerState.WithLabelValues(operation).Set(breakerStateValue(to))
}
