package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"careerflow/domain/events"
)

// Collector holds all Prometheus metrics for the application. Each collector
// owns its registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Workspace metrics
	TreeEvents    *prometheus.CounterVec
	NodesCreated  *prometheus.CounterVec
	NodesDeleted  prometheus.Counter
	NodesRestored prometheus.Counter

	// Command metrics
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Backend metrics
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	BreakerState    *prometheus.GaugeVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TreeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tree_events_total",
				Help:      "Domain events raised by the workspace tree",
			},
			[]string{"event"},
		),
		NodesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_created_total",
				Help:      "Total number of nodes created",
			},
			[]string{"type"},
		),
		NodesDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_deleted_total",
				Help:      "Total number of nodes deleted, descendants included",
			},
		),
		NodesRestored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_restored_total",
				Help:      "Nodes re-inserted after a failed backend delete",
			},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Commands handled by the command bus",
			},
			[]string{"command", "status"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Command duration in seconds, backend round trip included",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"command"},
		),
		BackendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_requests_total",
				Help:      "Requests sent to the backend collaborator",
			},
			[]string{"operation", "status"},
		),
		BackendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Backend request duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open",
			},
			[]string{"name"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.TreeEvents,
		c.NodesCreated,
		c.NodesDeleted,
		c.NodesRestored,
		c.Commands,
		c.CommandDuration,
		c.BackendRequests,
		c.BackendDuration,
		c.BreakerState,
	)
	return c
}

// Publish counts the events raised by a workspace action
func (c *Collector) Publish(evts []events.DomainEvent) {
	for _, e := range evts {
		c.TreeEvents.WithLabelValues(e.GetEventType()).Inc()
		switch ev := e.(type) {
		case events.NodeAdded:
			c.NodesCreated.WithLabelValues(ev.Kind.String()).Inc()
		case events.NodesDeleted:
			c.NodesDeleted.Add(float64(len(ev.NodeIDs)))
		case events.NodesRestored:
			c.NodesRestored.Add(float64(len(ev.NodeIDs)))
		}
	}
}

// RecordCommand records one command outcome
func (c *Collector) RecordCommand(name string, duration time.Duration, err error) {
	c.Commands.WithLabelValues(name, outcome(err)).Inc()
	c.CommandDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// RecordBackendCall records one backend request
func (c *Collector) RecordBackendCall(operation string, duration time.Duration, err error) {
	c.BackendRequests.WithLabelValues(operation, outcome(err)).Inc()
	c.BackendDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetBreakerState exports the breaker state as a number
func (c *Collector) SetBreakerState(name string, state int) {
	c.BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordHTTPRequest records one served request; route is the matched pattern
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
