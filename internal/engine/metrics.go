package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments of one engine. Each Metrics owns
// its registry so several engines can live in one process.
type Metrics struct {
	Registry *prometheus.Registry

	Ticks          prometheus.Counter
	TickDuration   prometheus.Histogram
	Nodes          prometheus.Gauge
	Links          prometheus.Gauge
	KineticEnergy  prometheus.Gauge
	LinkRecomputes prometheus.Counter
	LinkCacheHits  prometheus.Counter
	Reviews        *prometheus.CounterVec
}

// NewMetrics creates and registers the engine metrics under namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_ticks_total",
			Help:      "Total number of physics steps taken",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_tick_duration_seconds",
			Help:      "Wall time of one physics step",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Number of nodes in the session",
		}),
		Links: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_links",
			Help:      "Number of inferred links",
		}),
		KineticEnergy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_kinetic_energy",
			Help:      "Kinetic energy after the latest step",
		}),
		LinkRecomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_recomputes_total",
			Help:      "Times link inference ran",
		}),
		LinkCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_cache_hits_total",
			Help:      "Times link inference was skipped because node content was unchanged",
		}),
		Reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Spaced-repetition grades recorded",
		}, []string{"outcome"}),
	}

	m.Registry.MustRegister(
		m.Ticks,
		m.TickDuration,
		m.Nodes,
		m.Links,
		m.KineticEnergy,
		m.LinkRecomputes,
		m.LinkCacheHits,
		m.Reviews,
	)
	return m
}
