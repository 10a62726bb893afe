// Package metrics exports Prometheus metrics for a store.
//
// Instrument observes one store's event stream and keeps a small set of
// counters and gauges current. Every collector carries the store name as
// a constant label, so several stores can be instrumented against the
// same registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/statekit-dev/statekit/pkg/atom"
)

// Config configures store instrumentation.
type Config struct {
	// Namespace is the metrics namespace (default: "statekit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "store").
	Subsystem string

	// ConstLabels are constant labels added to all metrics, in addition
	// to the store name.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures store instrumentation.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "statekit",
		Subsystem: "store",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// collectors holds the Prometheus collectors for one store.
type collectors struct {
	atomsCached         prometheus.GaugeFunc
	setsTotal           prometheus.Counter
	refreshesTotal      prometheus.Counter
	subscriptionsActive prometheus.Gauge
	asyncRunsStarted    prometheus.Counter
	asyncRunsTotal      *prometheus.CounterVec
	invalidationsTotal  prometheus.Counter
	evictionsTotal      prometheus.Counter
}

// Instrument registers collectors for s and subscribes to its event
// stream. The returned stop function removes the observer and
// unregisters every collector.
func Instrument(s *atom.Store, opts ...Option) (stop func()) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	labels := prometheus.Labels{"store": s.Name()}
	for k, v := range config.ConstLabels {
		labels[k] = v
	}
	factory := promauto.With(config.Registry)

	c := &collectors{
		atomsCached: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "atoms_cached",
			Help:        "Number of atom entries currently cached in the store",
			ConstLabels: labels,
		}, func() float64 { return float64(s.Len()) }),

		setsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sets_total",
			Help:        "Total number of writable atom updates",
			ConstLabels: labels,
		}),

		refreshesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "refreshes_total",
			Help:        "Total number of explicit atom refreshes",
			ConstLabels: labels,
		}),

		subscriptionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscriptions_active",
			Help:        "Number of currently active subscriptions",
			ConstLabels: labels,
		}),

		asyncRunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "async_runs_started_total",
			Help:        "Total number of async atom runs started",
			ConstLabels: labels,
		}),

		asyncRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "async_runs_completed_total",
			Help:        "Total number of async atom run completions by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),

		invalidationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "invalidations_total",
			Help:        "Total number of tag invalidation fan-outs",
			ConstLabels: labels,
		}),

		evictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evictions_total",
			Help:        "Total number of idle entries evicted from the cache",
			ConstLabels: labels,
		}),
	}

	removeObserver := s.Observe(func(ev atom.Event) {
		switch ev.Type {
		case atom.EventSet:
			c.setsTotal.Inc()
		case atom.EventRefresh:
			c.refreshesTotal.Inc()
		case atom.EventSubscribe:
			c.subscriptionsActive.Inc()
		case atom.EventRelease:
			c.subscriptionsActive.Dec()
		case atom.EventAsyncStart:
			c.asyncRunsStarted.Inc()
		case atom.EventAsyncSuccess:
			c.asyncRunsTotal.WithLabelValues("success").Inc()
		case atom.EventAsyncFailure:
			c.asyncRunsTotal.WithLabelValues("failure").Inc()
		case atom.EventStaleDiscard:
			c.asyncRunsTotal.WithLabelValues("discarded").Inc()
		case atom.EventInvalidate:
			c.invalidationsTotal.Inc()
		case atom.EventEvict:
			c.evictionsTotal.Inc()
		}
	})

	return func() {
		removeObserver()
		config.Registry.Unregister(c.atomsCached)
		config.Registry.Unregister(c.setsTotal)
		config.Registry.Unregister(c.refreshesTotal)
		config.Registry.Unregister(c.subscriptionsActive)
		config.Registry.Unregister(c.asyncRunsStarted)
		config.Registry.Unregister(c.asyncRunsTotal)
		config.Registry.Unregister(c.invalidationsTotal)
		config.Registry.Unregister(c.evictionsTotal)
	}
}
