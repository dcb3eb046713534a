// Package metrics defines the Prometheus collectors for match runs and the
// HTTP surface, and exposes a handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run results used as the "result" label of RunsTotal.
const (
	ResultMatched   = "matched"
	ResultNoMatches = "no_matches"
	ResultSkipped   = "skipped"
	ResultError     = "error"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	PairsTotal           prometheus.Counter
	ComparisonsTotal     prometheus.Counter
	EvidenceTotal        prometheus.Counter
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. A nil reg uses a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "match_runs_total",
				Help: "Total match runs by result (matched, no_matches, skipped, error).",
			},
			[]string{"result"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "match_run_duration_seconds",
				Help:    "Wall time of a match run in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
		),
		PairsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "match_pairs_total",
				Help: "Total record pairs compared.",
			},
		),
		ComparisonsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "match_phrase_comparisons_total",
				Help: "Total phrase pairs scored.",
			},
		),
		EvidenceTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "match_evidence_total",
				Help: "Total matching record pairs found.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.PairsTotal,
		m.ComparisonsTotal,
		m.EvidenceTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)

	return m
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(result string, d time.Duration, pairs, comparisons, evidence int64) {
	m.RunsTotal.WithLabelValues(result).Inc()
	m.RunDuration.Observe(d.Seconds())
	m.PairsTotal.Add(float64(pairs))
	m.ComparisonsTotal.Add(float64(comparisons))
	m.EvidenceTotal.Add(float64(evidence))
}

// Handler returns the Prometheus scrape HTTP handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
