package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes.
const (
	LoginFound    = "found"
	LoginCreated  = "created"
	LoginRaceLost = "race_reread"
	LoginFailed   = "error"
)

var (
	// LoginsTotal counts find-or-create logins by outcome.
	LoginsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login requests by outcome",
		},
		[]string{"outcome"},
	)

	// EventOperationsTotal counts calendar event operations.
	EventOperationsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_operations_total",
			Help:      "Total number of event operations by operation and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: ok|invalid|not_found|error
	)
)

// RecordLogin increments the login counter for outcome.
func RecordLogin(outcome string) {
	LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordEventOperation increments the event counter.
func RecordEventOperation(operation, outcome string) {
	EventOperationsTotal.WithLabelValues(operation, outcome).Inc()
}
