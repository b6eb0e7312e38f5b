package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	*orderCollectors
	registry *prometheus.Registry

	queueLag *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	orders := newOrderCollectors(service)

	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coi",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between chat message send time and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(orders.collectors()...)
	registry.MustRegister(queueLag)

	return &WorkerMetrics{
		orderCollectors: orders,
		registry:        registry,
		queueLag:        queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(m.service).Observe(lag.Seconds())
}
