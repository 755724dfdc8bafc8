package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for HTTP, cache and recompute instrumentation.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	cacheLatency      prometheus.Histogram
	recomputeDuration *prometheus.HistogramVec
	summariesWritten  prometheus.Counter
	subjectsSkipped   prometheus.Counter
	scoresWritten     prometheus.Counter
	notifications     *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summary_cache_lookups_total",
			Help: "Summary cache lookups by result",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "summary_cache_latency_seconds",
			Help:    "Latency of summary cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		recomputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "summary_recompute_duration_seconds",
			Help:    "Duration of one subject recompute",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		summariesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "score_summaries_written_total",
			Help: "Summary rows written by recomputes",
		}),
		subjectsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "summary_subjects_skipped_total",
			Help: "Subjects skipped by recompute because no student had a score",
		}),
		scoresWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scores_written_total",
			Help: "Raw scores upserted",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summary_notifications_total",
			Help: "Summary notifications by result",
		}, []string{"result"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(m.requestDuration, m.requestTotal, m.cacheLookups, m.cacheLatency, m.recomputeDuration,
		m.summariesWritten, m.subjectsSkipped, m.scoresWritten, m.notifications, goroutines)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, label).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, label).Inc()
}

// RecordCacheLookup counts a summary cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveRecompute records one subject's recompute; outcome is replaced, skipped or failed.
func (m *MetricsService) ObserveRecompute(outcome string, written int, duration time.Duration) {
	if m == nil {
		return
	}
	m.recomputeDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	switch outcome {
	case RecomputeReplaced:
		m.summariesWritten.Add(float64(written))
	case RecomputeSkipped:
		m.subjectsSkipped.Inc()
	}
}

// AddScoresWritten counts upserted raw scores.
func (m *MetricsService) AddScoresWritten(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.scoresWritten.Add(float64(n))
}

// RecordNotification counts a notification attempt.
func (m *MetricsService) RecordNotification(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.notifications.WithLabelValues("failed").Inc()
		return
	}
	m.notifications.WithLabelValues("sent").Inc()
}
