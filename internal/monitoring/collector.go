package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PhoneSync/internal/domain"
)

// Collector mirrors monitoring events into Prometheus metrics. It is a
// read-side exporter; the in-memory Monitor stays the source of truth.
type Collector struct {
	registry *prometheus.Registry

	events     *prometheus.CounterVec
	apiLatency prometheus.Histogram
	syncErrors *prometheus.CounterVec
}

// NewCollector registers all metrics on a private registry so multiple
// instances can coexist in tests.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phonesync_events_total",
			Help: "Total number of monitoring events by type and source",
		}, []string{"type", "source"}),
		apiLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phonesync_api_latency_seconds",
			Help:    "Upstream API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		syncErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phonesync_sync_errors_total",
			Help: "Total number of failed sync runs by source",
		}, []string{"source"}),
	}

	c.registry.MustRegister(c.events)
	c.registry.MustRegister(c.apiLatency)
	c.registry.MustRegister(c.syncErrors)

	return c
}

// Observe records one event.
func (c *Collector) Observe(evt domain.Event) {
	c.events.WithLabelValues(string(evt.Type), string(evt.Source)).Inc()

	switch evt.Type {
	case domain.EventAPIRequest:
		c.apiLatency.Observe(evt.Duration.Seconds())
	case domain.EventSyncFailed:
		c.syncErrors.WithLabelValues(string(evt.Source)).Inc()
	}
}

// Handler exposes the registry in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
