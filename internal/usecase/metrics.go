package usecase

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// AttemptMetrics counts executed attempts by outcome.
type AttemptMetrics struct {
	executions *prometheus.CounterVec
}

// NewAttemptMetrics registers the attempt counters on the supplied
// registerer. Re-registration reuses the existing collector.
func NewAttemptMetrics(namespace string, reg prometheus.Registerer) *AttemptMetrics {
	executions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "attempts",
		Name:      "executed_total",
		Help:      "Executed check-in attempts by terminal status.",
	}, []string{"status"})

	if err := reg.Register(executions); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			executions = already.ExistingCollector.(*prometheus.CounterVec)
		}
	}

	return &AttemptMetrics{executions: executions}
}

func (m *AttemptMetrics) observe(status string) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(status).Inc()
}
