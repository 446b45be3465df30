// Package metrics provides Prometheus metrics for the token vault.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the vault. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	TokensStored        *prometheus.CounterVec
	TokenReads          *prometheus.CounterVec
	TokenRejections     *prometheus.CounterVec
	TokensSwept         prometheus.Counter
	PersistenceFailures prometheus.Counter
	EmergencyWipes      prometheus.Counter
	TokensPresent       prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		TokensStored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenvault_tokens_stored_total",
				Help: "Total number of tokens written, by slot.",
			},
			[]string{"slot"},
		),
		TokenReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenvault_token_reads_total",
				Help: "Total number of token reads, by slot and outcome.",
			},
			[]string{"slot", "outcome"},
		),
		TokenRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenvault_token_rejections_total",
				Help: "Tokens deleted because they failed a check, by reason.",
			},
			[]string{"reason"},
		),
		TokensSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tokenvault_tokens_swept_total",
				Help: "Tokens removed by the periodic integrity sweep.",
			},
		),
		PersistenceFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tokenvault_persistence_failures_total",
				Help: "Failed writes of the token store to durable storage.",
			},
		),
		EmergencyWipes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tokenvault_emergency_wipes_total",
				Help: "Number of emergency wipes performed.",
			},
		),
		TokensPresent: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tokenvault_tokens_present",
				Help: "Number of slots currently holding a token.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.TokensStored,
		m.TokenReads,
		m.TokenRejections,
		m.TokensSwept,
		m.PersistenceFailures,
		m.EmergencyWipes,
		m.TokensPresent,
	)

	return m
}

// Handler returns an HTTP handler that serves the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordStore(slot string) {
	if m == nil {
		return
	}
	m.TokensStored.WithLabelValues(slot).Inc()
}

func (m *Metrics) RecordRead(slot, outcome string) {
	if m == nil {
		return
	}
	m.TokenReads.WithLabelValues(slot, outcome).Inc()
}

func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.TokenRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordSwept(n int) {
	if m == nil || n == 0 {
		return
	}
	m.TokensSwept.Add(float64(n))
}

func (m *Metrics) RecordPersistenceFailure() {
	if m == nil {
		return
	}
	m.PersistenceFailures.Inc()
}

func (m *Metrics) RecordWipe() {
	if m == nil {
		return
	}
	m.EmergencyWipes.Inc()
}

func (m *Metrics) SetTokensPresent(n int) {
	if m == nil {
		return
	}
	m.TokensPresent.Set(float64(n))
}
