package scan

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per-pass counters. A nil *Metrics records nothing.
type Metrics struct {
	passes        *prometheus.CounterVec
	commits       *prometheus.CounterVec
	candidates    prometheus.Gauge
	skipped       prometheus.Gauge
	edges         prometheus.Gauge
	registrations prometheus.Counter
	duration      prometheus.Histogram
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofac_scan_passes_total",
				Help: "Number of planned scan passes by outcome.",
			},
			[]string{"outcome"},
		),
		commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofac_scan_commits_total",
				Help: "Number of plan commits by outcome.",
			},
			[]string{"outcome"},
		),
		candidates: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gofac_scan_candidates",
				Help: "Number of candidates ordered in the last successful pass.",
			},
		),
		skipped: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gofac_scan_skipped_candidates",
				Help: "Number of candidates skipped as already registered in the last successful pass.",
			},
		),
		edges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gofac_scan_graph_edges",
				Help: "Number of dependency edges in the last successful pass.",
			},
		),
		registrations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gofac_scan_registrations_total",
				Help: "Total number of candidates committed to a registry.",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gofac_scan_pass_duration_seconds",
				Help:    "Time taken to plan a scan pass.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// Collectors lists every collector, for callers managing registration themselves.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.passes, m.commits, m.candidates, m.skipped, m.edges, m.registrations, m.duration}
}

// Register adds all collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observePlan(plan *Plan, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(elapsed.Seconds())
	if err != nil {
		m.passes.WithLabelValues(KindOf(err).String()).Inc()
		return
	}
	m.passes.WithLabelValues("success").Inc()
	m.candidates.Set(float64(len(plan.Order)))
	m.skipped.Set(float64(len(plan.Skipped)))
	m.edges.Set(float64(plan.Graph.EdgeCount()))
}

func (m *Metrics) observeCommit(n int, err error) {
	if m == nil {
		return
	}
	m.registrations.Add(float64(n))
	if err != nil {
		m.commits.WithLabelValues(KindOf(err).String()).Inc()
		return
	}
	m.commits.WithLabelValues("success").Inc()
}
