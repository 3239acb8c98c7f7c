package metric

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
)

const namespace = "minisocial"

// Registry holds all client metrics. A nil *Registry is valid and records
// nothing.
type Registry struct {
	registry *prometheus.Registry

	// Executor metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TransportErrors *prometheus.CounterVec

	// Session metrics
	OperationFailures *prometheus.CounterVec
	TokenStoreOps     *prometheus.CounterVec

	// Task metrics
	TasksInFlight  prometheus.Gauge
	TasksDiscarded prometheus.Counter
}

// NewRegistry creates and registers the client metrics.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests that received a response, by method and status code.",
		}, []string{"method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Round-trip latency of HTTP requests.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		TransportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "transport_errors_total",
			Help:      "HTTP requests that never received a response.",
		}, []string{"method"}),
		OperationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "operation_failures_total",
			Help:      "Failed client operations by operation and error kind.",
		}, []string{"operation", "kind"}),
		TokenStoreOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokenstore",
			Name:      "operations_total",
			Help:      "Token store operations by operation and result.",
		}, []string{"op", "result"}),
		TasksInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "task",
			Name:      "in_flight",
			Help:      "User actions currently running.",
		}),
		TasksDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "task",
			Name:      "discarded_total",
			Help:      "Completions dropped because the task was superseded or torn down.",
		}),
	}

	r.registry.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.TransportErrors,
		r.OperationFailures,
		r.TokenStoreOps,
		r.TasksInFlight,
		r.TasksDiscarded,
		collectors.NewGoCollector(),
	)
	return r
}

// Prometheus returns the underlying registry for additional collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// MustRegister registers extra collectors. It is a no-op on a nil Registry.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	if r == nil {
		return
	}
	r.registry.MustRegister(cs...)
}

// ObserveRequest records a request that received a response.
func (r *Registry) ObserveRequest(method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveTransportError records a request that never received a response.
func (r *Registry) ObserveTransportError(method string) {
	if r == nil {
		return
	}
	r.TransportErrors.WithLabelValues(method).Inc()
}

// ObserveFailure records a classified operation failure.
func (r *Registry) ObserveFailure(operation, kind string) {
	if r == nil {
		return
	}
	r.OperationFailures.WithLabelValues(operation, kind).Inc()
}

// ObserveStore records a token store operation.
func (r *Registry) ObserveStore(op string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.TokenStoreOps.WithLabelValues(op, result).Inc()
}

// TaskStarted and TaskFinished track in-flight user actions.
func (r *Registry) TaskStarted() {
	if r == nil {
		return
	}
	r.TasksInFlight.Inc()
}

func (r *Registry) TaskFinished(discarded bool) {
	if r == nil {
		return
	}
	r.TasksInFlight.Dec()
	if discarded {
		r.TasksDiscarded.Inc()
	}
}

// WriteText renders every gathered family in the Prometheus text format.
// Families whose name does not start with prefix are skipped; an empty
// prefix writes everything.
func (r *Registry) WriteText(w io.Writer, prefix string) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), prefix) {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
