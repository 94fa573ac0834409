// Package metrics exposes Prometheus collectors for the HTTP layer and the
// quiz core. Each Metrics owns its registry so tests never collide on the
// global one.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "picquiz"

// Metrics holds every collector the service reports.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	questions    *prometheus.CounterVec
	answers      *prometheus.CounterVec
	errorImages  *prometheus.CounterVec
	imageLatency prometheus.Histogram
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Question assembly attempts by session mode and outcome.",
		}, []string{"mode", "outcome"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Submitted answers by level and correctness.",
		}, []string{"level", "correct"}),
		errorImages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "error_images_total",
			Help:      "Error image resolutions by source (cache, generated, placeholder).",
		}, []string{"source"}),
		imageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "error_image_duration_seconds",
			Help:      "Time spent resolving an error image.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 20, 45, 60},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.questions,
		m.answers,
		m.errorImages,
		m.imageLatency,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// QuestionAssembled counts an assembly attempt. outcome is "ok" or the
// reason the target was skipped.
func (m *Metrics) QuestionAssembled(mode, outcome string) {
	m.questions.WithLabelValues(mode, outcome).Inc()
}

// AnswerSubmitted counts an answer for level.
func (m *Metrics) AnswerSubmitted(level string, correct bool) {
	m.answers.WithLabelValues(level, strconv.FormatBool(correct)).Inc()
}

// TrackLiveSessions exports the number of sessions held in memory, read
// from count at scrape time. Call it once per Metrics.
func (m *Metrics) TrackLiveSessions(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_sessions",
		Help:      "Quiz sessions held in the in-memory store.",
	}, func() float64 { return float64(count()) }))
}

// ErrorImageResolved counts a resolution and its latency.
func (m *Metrics) ErrorImageResolved(source string, elapsed time.Duration) {
	m.errorImages.WithLabelValues(source).Inc()
	m.imageLatency.Observe(elapsed.Seconds())
}
