package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics are the collectors exported on /metrics
type Metrics struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	loads    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the server collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "goslice",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "goslice",
			Name:      "mesh_loads_total",
			Help:      "Mesh loads by outcome and winning strategy.",
		}, []string{"outcome", "strategy"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "goslice",
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent turning an upload into statistics and G-code.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"mode"}),
	}
	m.Registry.MustRegister(
		m.requests,
		m.loads,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
