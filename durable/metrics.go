package durable

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records dispatch outcomes and latencies. A nil *Metrics is valid
// and records nothing, so instrumentation stays optional.
type Metrics struct {
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	executionsTotal  *prometheus.CounterVec
}

// NewMetrics registers the dispatch metric families with the given registerer
// (use prometheus.DefaultRegisterer for the process default).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		dispatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "durable_dispatches_total",
				Help: "Total dispatched units by unit id and outcome",
			},
			[]string{"unit", "outcome"},
		),
		dispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "durable_dispatch_duration_seconds",
				Help:    "Wall-clock duration of unit dispatches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"unit"},
		),
		executionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "durable_worker_executions_total",
				Help: "Total worker-side unit executions by unit id and outcome",
			},
			[]string{"unit", "outcome"},
		),
	}
}

// ObserveDispatch records a completed dispatch seen from the orchestrating
// side, classifying the error into an outcome label.
func (m *Metrics) ObserveDispatch(unit UnitID, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.dispatchesTotal.WithLabelValues(string(unit), outcomeLabel(err)).Inc()
	m.dispatchDuration.WithLabelValues(string(unit)).Observe(duration.Seconds())
}

// ObserveExecution records one worker-side unit execution.
func (m *Metrics) ObserveExecution(unit UnitID, err error) {
	if m == nil {
		return
	}
	m.executionsTotal.WithLabelValues(string(unit), outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.As(err, new(*DispatchTimeoutError)):
		return "timeout"
	case errors.As(err, new(*WorkerExecutionError)):
		return "worker_error"
	case errors.As(err, new(*ConfigurationError)):
		return "configuration_error"
	case errors.As(err, new(*ResolutionError)):
		return "resolution_error"
	default:
		return "error"
	}
}
