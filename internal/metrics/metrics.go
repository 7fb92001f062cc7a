// Package metrics exposes Prometheus collectors for the daemon life cycle
// and the log sink.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// lifecycleState is the numeric controller state (0 = created … 5 = stopped).
	lifecycleState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swarm_lifecycle_state",
			Help: "Current daemon life-cycle state",
		},
	)

	lifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarm_lifecycle_transitions_total",
			Help: "Total life-cycle state transitions by source and target state",
		},
		[]string{"from", "to"},
	)

	lifecycleReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "swarm_lifecycle_reloads_total",
			Help: "Total reload requests handled by the reinit hook",
		},
	)

	workerExitCode = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swarm_worker_exit_code",
			Help: "Exit code returned by the most recent worker run",
		},
	)

	workerPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "swarm_worker_panics_total",
			Help: "Total panics recovered at the worker boundary",
		},
	)

	logReopens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarm_log_reopens_total",
			Help: "Total log files reopened after the backing file vanished, by sink name",
		},
		[]string{"sink"},
	)

	optionCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarm_option_callbacks_total",
			Help: "Total option callback invocations by option name",
		},
		[]string{"option"},
	)
)

// RecordTransition records a state change. State values are passed as both
// their ordinal (for the gauge) and their name (for the counter labels).
func RecordTransition(from, to string, toOrdinal int) {
	lifecycleTransitions.WithLabelValues(from, to).Inc()
	lifecycleState.Set(float64(toOrdinal))
}

// RecordReload increments the reload counter.
func RecordReload() {
	lifecycleReloads.Inc()
}

// RecordWorkerExit stores the worker's exit code.
func RecordWorkerExit(code int) {
	workerExitCode.Set(float64(code))
}

// RecordWorkerPanic increments the recovered panic counter.
func RecordWorkerPanic() {
	workerPanics.Inc()
}

// RecordLogReopen increments the reopen counter for a sink.
func RecordLogReopen(sink string) {
	logReopens.WithLabelValues(sink).Inc()
}

// RecordOptionCallback increments the callback counter for an option.
func RecordOptionCallback(option string) {
	optionCallbacks.WithLabelValues(option).Inc()
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
