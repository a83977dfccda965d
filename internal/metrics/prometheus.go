package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label used for crashes with no report.
const unknownSignal = "unknown"

// Implements [Collector] with Prometheus counters.
type Prometheus struct {
	sessions      prometheus.Counter
	requests      *prometheus.CounterVec
	spawns        prometheus.Counter
	spawnFailures prometheus.Counter
	crashes       *prometheus.CounterVec

	registry *prometheus.Registry
}

// Creates a collector with its own registry. An empty namespace defaults to
// "quadd".
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "quadd"
	}

	p := &Prometheus{
		registry: prometheus.NewRegistry(),
	}

	p.sessions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Total number of client sessions accepted",
	})

	p.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of client requests by kind and status",
		},
		[]string{"kind", "status"},
	)

	p.spawns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_spawns_total",
		Help:      "Total number of worker processes started",
	})

	p.spawnFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_spawn_failures_total",
		Help:      "Total number of worker processes that failed to start",
	})

	p.crashes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_crashes_total",
			Help:      "Total number of worker crashes by signal",
		},
		[]string{"signal"},
	)

	p.registry.MustRegister(
		p.sessions,
		p.requests,
		p.spawns,
		p.spawnFailures,
		p.crashes,
	)

	return p
}

func (p *Prometheus) SessionOpened() {
	p.sessions.Inc()
}

func (p *Prometheus) RequestHandled(kind, status string) {
	p.requests.WithLabelValues(kind, status).Inc()
}

func (p *Prometheus) WorkerSpawned() {
	p.spawns.Inc()
}

func (p *Prometheus) WorkerSpawnFailed() {
	p.spawnFailures.Inc()
}

func (p *Prometheus) WorkerCrashed(signal string) {
	if signal == "" {
		signal = unknownSignal
	}
	p.crashes.WithLabelValues(signal).Inc()
}

// Returns the registry holding the collector's metrics.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Returns an HTTP handler exposing the collector's metrics.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
