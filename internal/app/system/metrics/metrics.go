// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	OrgOperationsTotal   *prometheus.CounterVec
	OrgOperationDuration *prometheus.HistogramVec

	EventsPublishedTotal *prometheus.CounterVec
	EventsDroppedTotal   *prometheus.CounterVec
	EventsRelayedTotal   *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrgOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orghub_org_operations_total",
				Help: "Organization operations by name and outcome",
			},
			[]string{"operation", "outcome"},
		),
		OrgOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orghub_org_operation_duration_seconds",
				Help:    "Organization operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		EventsPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orghub_events_published_total",
				Help: "Events accepted by the in-process bus",
			},
			[]string{"event"},
		),
		EventsDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orghub_events_dropped_total",
				Help: "Events dropped because the bus buffer was full",
			},
			[]string{"event"},
		),
		EventsRelayedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orghub_events_relayed_total",
				Help: "Events forwarded to Redis by outcome",
			},
			[]string{"event", "outcome"},
		),
	}

	reg.MustRegister(
		m.OrgOperationsTotal,
		m.OrgOperationDuration,
		m.EventsPublishedTotal,
		m.EventsDroppedTotal,
		m.EventsRelayedTotal,
	)
	return m
}

// ObserveOperation records one organization operation.
// outcome is "ok" or the error kind.
func (m *Metrics) ObserveOperation(op, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.OrgOperationsTotal.WithLabelValues(op, outcome).Inc()
	m.OrgOperationDuration.WithLabelValues(op).Observe(took.Seconds())
}

func (m *Metrics) EventPublished(event string) {
	if m == nil {
		return
	}
	m.EventsPublishedTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) EventDropped(event string) {
	if m == nil {
		return
	}
	m.EventsDroppedTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) EventRelayed(event, outcome string) {
	if m == nil {
		return
	}
	m.EventsRelayedTotal.WithLabelValues(event, outcome).Inc()
}

// Handler serves the metrics in g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
