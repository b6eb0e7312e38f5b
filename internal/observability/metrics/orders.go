package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

// orderCollectors is shared by the worker and API registries; both processes
// run the same intake use case.
type orderCollectors struct {
	service string

	messagesTotal    *prometheus.CounterVec
	processDuration  *prometheus.HistogramVec
	processInFlight  prometheus.Gauge
	unmatchedTotal   *prometheus.CounterVec
	duplicatesTotal  *prometheus.CounterVec
	catalogEntries   *prometheus.GaugeVec
	catalogReloads   *prometheus.CounterVec
	retriesTotal     *prometheus.CounterVec
	breakerOpenState *prometheus.GaugeVec
}

func newOrderCollectors(service string) *orderCollectors {
	return &orderCollectors{
		service: service,
		messagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "coi",
				Subsystem: "orders",
				Name:      "messages_total",
				Help:      "Total processed order messages by outcome.",
			},
			[]string{"service", "outcome"},
		),
		processDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "coi",
				Subsystem: "orders",
				Name:      "process_duration_seconds",
				Help:      "Order message processing duration in seconds by outcome.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "outcome"},
		),
		processInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "coi",
				Subsystem: "orders",
				Name:      "in_flight",
				Help:      "Number of order messages being processed.",
				ConstLabels: prometheus.Labels{
					"service": service,
				},
			},
		),
		unmatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "coi",
				Subsystem: "orders",
				Name:      "items_unmatched_total",
				Help:      "Total order items dropped because no article matched.",
			},
			[]string{"service"},
		),
		duplicatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "coi",
				Subsystem: "orders",
				Name:      "duplicate_messages_total",
				Help:      "Total redelivered chat messages skipped by the duplicate guard.",
			},
			[]string{"service"},
		),
		catalogEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "coi",
				Subsystem: "catalog",
				Name:      "entries",
				Help:      "Entries in the active catalog snapshot by list.",
			},
			[]string{"service", "list"},
		),
		catalogReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "coi",
				Subsystem: "catalog",
				Name:      "reloads_total",
				Help:      "Total catalog reloads by status.",
			},
			[]string{"service", "status"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "coi",
				Subsystem: "resilience",
				Name:      "retries_total",
				Help:      "Total retried attempts by operation.",
			},
			[]string{"service", "operation"},
		),
		breakerOpenState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "coi",
				Subsystem: "resilience",
				Name:      "breaker_open",
				Help:      "1 while the operation's circuit breaker is open.",
			},
			[]string{"service", "operation"},
		),
	}
}

func (c *orderCollectors) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.messagesTotal,
		c.processDuration,
		c.processInFlight,
		c.unmatchedTotal,
		c.duplicatesTotal,
		c.catalogEntries,
		c.catalogReloads,
		c.retriesTotal,
		c.breakerOpenState,
	}
}

func (c *orderCollectors) StartOrderMessage() {
	c.processInFlight.Inc()
}

func (c *orderCollectors) FinishOrderMessage(report domain.OutcomeReport, duration time.Duration) {
	c.processInFlight.Dec()

	outcome := string(report.Status)
	if outcome == "" {
		outcome = "unknown"
	}
	c.messagesTotal.WithLabelValues(c.service, outcome).Inc()
	c.processDuration.WithLabelValues(c.service, outcome).Observe(duration.Seconds())
	if n := len(report.Unmatched); n > 0 {
		c.unmatchedTotal.WithLabelValues(c.service).Add(float64(n))
	}
}

func (c *orderCollectors) RecordDuplicateMessage() {
	c.duplicatesTotal.WithLabelValues(c.service).Inc()
}

func (c *orderCollectors) RecordCatalogReload(stats domain.CatalogStats, err error) {
	if err != nil {
		c.catalogReloads.WithLabelValues(c.service, "error").Inc()
		return
	}
	c.catalogReloads.WithLabelValues(c.service, "success").Inc()
	c.catalogEntries.WithLabelValues(c.service, string(domain.CatalogClients)).Set(float64(stats.Clients))
	c.catalogEntries.WithLabelValues(c.service, string(domain.CatalogArticles)).Set(float64(stats.Articles))
}

// ObserveRetry and ObserveBreakerState satisfy resilience.Observer.
func (c *orderCollectors) ObserveRetry(operation string) {
	c.retriesTotal.WithLabelValues(c.service, operation).Inc()
}

func (c *orderCollectors) ObserveBreakerState(operation, state string) {
	open := 0.0
	if state == "open" {
		open = 1
	}
	c.breakerOpenState.WithLabelValues(c.service, operation).Set(open)
}
