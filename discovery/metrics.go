package discovery

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache hits, misses and shared reads per source.
// A nil *Metrics records nothing.
type Metrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
	shares *prometheus.CounterVec
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofac_discovery_cache_hit_total",
				Help: "Number of times a discovery cache hit occurred.",
			},
			[]string{"source"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofac_discovery_cache_miss_total",
				Help: "Number of times a discovery cache miss occurred.",
			},
			[]string{"source"},
		),
		shares: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofac_discovery_cache_share_total",
				Help: "Number of times a concurrent discovery was shared.",
			},
			[]string{"source"},
		),
	}
}

// Collectors lists every collector.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.hits, m.misses, m.shares}
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

func (m *Metrics) hit(source string) {
	if m != nil {
		m.hits.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) miss(source string) {
	if m != nil {
		m.misses.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) share(source string) {
	if m != nil {
		m.shares.WithLabelValues(source).Inc()
	}
}
