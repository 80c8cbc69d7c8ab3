// Package metrics exposes Prometheus collectors for the client core: remote
// calls, unauthorized replays, token refreshes and cache fetches.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trailkeeper"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RemoteCalls  *prometheus.CounterVec
	Replays      *prometheus.CounterVec
	Refreshes    *prometheus.CounterVec
	CacheFetches *prometheus.CounterVec
	CacheEntries prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RemoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Remote API calls by operation and HTTP status (0 for transport failures).",
		}, []string{"op", "code"}),
		Replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unauthorized_replays_total",
			Help:      "Operations replayed after a token refresh, by outcome.",
		}, []string{"kind", "outcome"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by outcome.",
		}, []string{"outcome"}),
		CacheFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_fetches_total",
			Help:      "Query cache fetches by entity kind and outcome.",
		}, []string{"kind", "outcome"}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Entries currently held by the query cache.",
		}),
	}
	reg.MustRegister(m.RemoteCalls, m.Replays, m.Refreshes, m.CacheFetches, m.CacheEntries)
	return m
}

// ObserveCall counts one remote call.
func (m *Metrics) ObserveCall(op string, status int) {
	if m == nil {
		return
	}
	m.RemoteCalls.WithLabelValues(op, strconv.Itoa(status)).Inc()
}

// ObserveReplay counts one replay outcome.
func (m *Metrics) ObserveReplay(kind, outcome string) {
	if m == nil {
		return
	}
	m.Replays.WithLabelValues(kind, outcome).Inc()
}

// ObserveRefresh counts one refresh outcome.
func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(outcome).Inc()
}

// ObserveFetch counts one cache fetch outcome.
func (m *Metrics) ObserveFetch(kind, outcome string) {
	if m == nil {
		return
	}
	m.CacheFetches.WithLabelValues(kind, outcome).Inc()
}

// SetCacheEntries records the current cache size.
func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.CacheEntries.Set(float64(n))
}
