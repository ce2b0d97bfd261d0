// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they need.
type Metrics struct {
	reg *prometheus.Registry

	Requests      *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	JobRuns       *prometheus.CounterVec
	JobAffected   *prometheus.CounterVec
	EventsPublish *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec
	RateLimited   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salon",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "job_runs_total",
			Help:      "Background job runs by job and result.",
		}, []string{"job", "result"}),
		JobAffected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "job_affected_rows_total",
			Help:      "Rows changed or alerts raised by background jobs.",
		}, []string{"job"}),
		EventsPublish: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "events_published_total",
			Help:      "Domain events handed to the broker by queue and result.",
		}, []string{"queue", "result"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "catalog_cache_lookups_total",
			Help:      "Catalog response cache lookups by result (hit, miss, purge).",
		}, []string{"result"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "rate_limited_total",
			Help:      "Requests rejected with 429 by limiter scope.",
		}, []string{"scope"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests, m.Duration, m.JobRuns, m.JobAffected, m.EventsPublish,
		m.CacheLookups, m.RateLimited,
	)
	return m
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveJob records one run of a background job.
func (m *Metrics) ObserveJob(job string, affected int64, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.JobRuns.WithLabelValues(job, result).Inc()
	if affected > 0 {
		m.JobAffected.WithLabelValues(job).Add(float64(affected))
	}
}

// ObservePublish records one publish attempt.
func (m *Metrics) ObservePublish(queue string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublish.WithLabelValues(queue, result).Inc()
}

// ObserveCache records a cache hit, miss or purge.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveRateLimited records one request turned away by the limiter scope.
func (m *Metrics) ObserveRateLimited(scope string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(scope).Inc()
}
