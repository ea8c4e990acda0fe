// Package metrics exposes the relay's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the relay collectors on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
	Forgery         *prometheus.CounterVec
	RateLimited     prometheus.Counter
	AuthFailures    *prometheus.CounterVec
	Registrations   prometheus.Counter
	ExportsUploaded prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophagenda",
			Name:      "http_requests_total",
			Help:      "Relay requests by route and status code.",
		}, []string{"route", "code"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gophagenda",
			Name:      "http_request_duration_seconds",
			Help:      "Relay request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		Forgery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophagenda",
			Name:      "forgery_attempts_total",
			Help:      "Requests carrying malformed input or a forged token.",
		}, []string{"route"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gophagenda",
			Name:      "rate_limited_total",
			Help:      "Requests refused by the rate limiter.",
		}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophagenda",
			Name:      "auth_failures_total",
			Help:      "Rejected auth cookies by reason.",
		}, []string{"reason"}),
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gophagenda",
			Name:      "registrations_total",
			Help:      "Accounts created.",
		}),
		ExportsUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gophagenda",
			Name:      "exports_total",
			Help:      "Account bundles uploaded to object storage.",
		}),
	}

	m.registry.MustRegister(
		m.Requests, m.Duration, m.Forgery, m.RateLimited, m.AuthFailures, m.Registrations, m.ExportsUploaded,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe records one finished request.
func (m *Metrics) Observe(route string, code int, elapsed time.Duration) {
	m.Requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.Duration.WithLabelValues(route).Observe(elapsed.Seconds())
}
