// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for session
// lifecycle and storage housekeeping.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camcore_session_state_transitions_total",
		Help: "Session state transitions by repository and new state.",
	}, []string{"repository", "state"})

	configRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camcore_config_rejections_total",
		Help: "Configuration updates rejected by validation.",
	}, []string{"repository"})

	recordingsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camcore_recordings_evicted_total",
		Help: "Recordings deleted by retention eviction.",
	})
)

// IncStateTransition records a transition into the named state.
func IncStateTransition(repository, state string) {
	stateTransitions.WithLabelValues(repository, state).Inc()
}

// IncConfigRejection records a rejected configuration update.
func IncConfigRejection(repository string) {
	configRejections.WithLabelValues(repository).Inc()
}

// IncRecordingEvicted records one successful retention deletion.
func IncRecordingEvicted() {
	recordingsEvicted.Inc()
}
