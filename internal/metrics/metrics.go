// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobwatch"

// Metrics holds every collector the service updates. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	CyclesTotal    *prometheus.CounterVec
	CycleDuration  prometheus.Histogram
	PostingsTotal  *prometheus.CounterVec
	SourceFailures *prometheus.CounterVec
	NotifyFailures *prometheus.CounterVec
	LedgerEntries  prometheus.Gauge
	LedgerPruned   prometheus.Counter
	StateDegraded  prometheus.Gauge
}

// New registers all collectors on a private registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed cycles by result (ok, failed).",
		}, []string{"result"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a full cycle.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		PostingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_total",
			Help:      "Postings seen, by source and classification.",
		}, []string{"source", "class"}),
		SourceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Fetches that failed, by source.",
		}, []string{"source"}),
		NotifyFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Notifications that failed after retries, by kind.",
		}, []string{"kind"}),
		LedgerEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_entries",
			Help:      "Identities currently remembered as notified.",
		}),
		LedgerPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_pruned_total",
			Help:      "Ledger entries removed by retention.",
		}),
		StateDegraded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state_degraded",
			Help:      "1 while running on an in-memory ledger because the stored one is corrupt.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCycle(ok bool, took time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(took.Seconds())
}

func (m *Metrics) AddPostings(source, class string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.PostingsTotal.WithLabelValues(source, class).Add(float64(n))
}

func (m *Metrics) SourceFailed(source string) {
	if m == nil {
		return
	}
	m.SourceFailures.WithLabelValues(source).Inc()
}

func (m *Metrics) NotifyFailed(kind string) {
	if m == nil {
		return
	}
	m.NotifyFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetLedgerSize(n int) {
	if m == nil {
		return
	}
	m.LedgerEntries.Set(float64(n))
}

func (m *Metrics) Pruned(n int) {
	if m == nil || n == 0 {
		return
	}
	m.LedgerPruned.Add(float64(n))
}

func (m *Metrics) SetDegraded(on bool) {
	if m == nil {
		return
	}
	if on {
		m.StateDegraded.Set(1)
		return
	}
	m.StateDegraded.Set(0)
}
