// Package metrics exposes Prometheus instrumentation for the engine and the
// live feed. Every method is safe to call on a nil *Collector.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// Engine metrics
	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram
	NodeFailures prometheus.Counter
	Nodes        prometheus.Gauge
	Stalls       prometheus.Counter

	// Feed metrics
	Subscribers       prometheus.Gauge
	BatchesPublished  *prometheus.CounterVec
	SubscriberOverrun prometheus.Counter

	// Ingestion metrics
	NodesCreated prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a collector backed by its own registry so tests can
// build as many as they like.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_ticks_total",
			Help:      "Total number of completed engine passes",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_tick_duration_seconds",
			Help:      "Duration of one engine pass",
			Buckets:   prometheus.DefBuckets,
		}),
		NodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_node_failures_total",
			Help:      "Nodes that failed to update during a pass",
		}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Number of nodes visited in the last pass",
		}),
		Stalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_stalls_total",
			Help:      "Times the engine was detected as stalled",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_subscribers",
			Help:      "Currently registered feed subscribers",
		}),
		BatchesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_batches_published_total",
			Help:      "Batches published on the update bus",
		}, []string{"kind"}),
		SubscriberOverrun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_subscriber_overruns_total",
			Help:      "Subscribers dropped because they fell behind",
		}),
		NodesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_nodes_created_total",
			Help:      "Nodes created through ingestion",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	registry.MustRegister(
		c.Ticks, c.TickDuration, c.NodeFailures, c.Nodes, c.Stalls,
		c.Subscribers, c.BatchesPublished, c.SubscriberOverrun,
		c.NodesCreated, c.HTTPRequests, c.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveTick(d time.Duration, visited, failed int) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.TickDuration.Observe(d.Seconds())
	c.Nodes.Set(float64(visited))
	c.NodeFailures.Add(float64(failed))
}

func (c *Collector) RecordStall() {
	if c == nil {
		return
	}
	c.Stalls.Inc()
}

func (c *Collector) SetSubscribers(n int) {
	if c == nil {
		return
	}
	c.Subscribers.Set(float64(n))
}

func (c *Collector) RecordPublish(kind string) {
	if c == nil {
		return
	}
	c.BatchesPublished.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordOverrun() {
	if c == nil {
		return
	}
	c.SubscriberOverrun.Inc()
}

func (c *Collector) RecordCreated(n int) {
	if c == nil {
		return
	}
	c.NodesCreated.Add(float64(n))
}

func (c *Collector) ObserveRequest(method string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, statusClass(status)).Inc()
	c.HTTPDuration.WithLabelValues(method).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
