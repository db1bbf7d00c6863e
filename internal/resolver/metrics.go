package resolver

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxlogik/raritycheck/internal/status"
)

type Metrics struct {
	resolutions *prometheus.CounterVec
	requests    *prometheus.CounterVec
	addresses   *prometheus.CounterVec
	duration    prometheus.Summary
}

// NewMetrics registers the resolver collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raritycheck",
			Name:      "resolutions_total",
			Help:      "Resolution batches by the endpoint that served them",
		}, []string{"source"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raritycheck",
			Name:      "provider_requests_total",
			Help:      "Balance provider requests by outcome",
		}, []string{"provider", "status"}),
		addresses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raritycheck",
			Name:      "addresses_resolved_total",
			Help:      "Resolved addresses by coin status",
		}, []string{"status"}),
		duration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "raritycheck",
			Name:      "resolution_duration_seconds",
			Help:      "Time spent resolving one batch",
		}),
	}
	reg.MustRegister(m.resolutions, m.requests, m.addresses, m.duration)
	return m
}

func (m *Metrics) request(provider string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) batch(b Batch, seconds float64) {
	if m == nil {
		return
	}
	m.duration.Observe(seconds)
	m.resolutions.WithLabelValues(string(b.Source)).Inc()
	for _, rec := range b.Balances {
		m.addresses.WithLabelValues(string(rec.Status.Kind)).Inc()
	}
}

// keep label values stable even before the first batch
func (m *Metrics) init(providers ...string) {
	if m == nil {
		return
	}
	for _, s := range []Source{SourcePrimary, SourceSecondary} {
		m.resolutions.WithLabelValues(string(s))
	}
	for _, k := range status.Kinds {
		m.addresses.WithLabelValues(string(k))
	}
	for _, p := range providers {
		m.requests.WithLabelValues(p, "ok")
		m.requests.WithLabelValues(p, "error")
	}
}
