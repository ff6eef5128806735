package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the service on its own registry
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Ingestion metrics
	Ingestions    *prometheus.CounterVec
	TopicsCreated prometheus.Counter
	EdgesCreated  prometheus.Counter
	EdgesSkipped  *prometheus.CounterVec
	LockWait      prometheus.Histogram

	// Roadmap metrics
	RoadmapPaths     prometheus.Histogram
	RoadmapTruncated prometheus.Counter
	RoadmapDuration  prometheus.Histogram

	// LLM metrics
	LLMRequests *prometheus.CounterVec
	LLMDuration *prometheus.HistogramVec
}

// NewCollector creates a collector whose metric names are prefixed with namespace
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Ingestion calls by source and outcome",
		}, []string{"source", "status"}),
		TopicsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topics_created_total",
			Help:      "Topics inserted by ingestion",
		}),
		EdgesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_created_total",
			Help:      "Prerequisite edges inserted by ingestion",
		}),
		EdgesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_skipped_total",
			Help:      "Connections dropped during ingestion, by reason",
		}, []string{"reason"}),
		LockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingestion_lock_wait_seconds",
			Help:      "Time spent waiting for the per-graph ingestion lock",
			Buckets:   prometheus.DefBuckets,
		}),
		RoadmapPaths: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "roadmap_paths",
			Help:      "Number of paths returned per roadmap query",
			Buckets:   []float64{0, 1, 2, 5, 10, 50, 100, 500, 1000},
		}),
		RoadmapTruncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roadmap_truncated_total",
			Help:      "Roadmap queries cut short by a path or depth limit",
		}),
		RoadmapDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "roadmap_search_duration_seconds",
			Help:      "Path search duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Language model calls by provider and outcome",
		}, []string{"provider", "status"}),
		LLMDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Language model call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"provider"}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Ingestions,
		c.TopicsCreated,
		c.EdgesCreated,
		c.EdgesSkipped,
		c.LockWait,
		c.RoadmapPaths,
		c.RoadmapTruncated,
		c.RoadmapDuration,
		c.LLMRequests,
		c.LLMDuration,
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one finished request
func (c *Collector) ObserveHTTP(method, route, status string, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveLLM records one language model call
func (c *Collector) ObserveLLM(provider string, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.LLMRequests.WithLabelValues(provider, status).Inc()
	c.LLMDuration.WithLabelValues(provider).Observe(d.Seconds())
}
