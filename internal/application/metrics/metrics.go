package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the application lifecycle: submissions, transitions by
// target status, and concurrent-update conflicts.
type Metrics struct {
	Created            prometheus.Counter
	Transitions        *prometheus.CounterVec
	Conflicts          prometheus.Counter
	Denials            *prometheus.CounterVec
	TransitionDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Created: f.NewCounter(prometheus.CounterOpts{
			Name: "grameengo_applications_created_total",
			Help: "Total number of loan applications submitted",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grameengo_application_transitions_total",
			Help: "Accepted application status transitions by target status",
		}, []string{"status"}),
		Conflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "grameengo_application_conflicts_total",
			Help: "Transitions rejected because the stored status changed underneath the caller",
		}),
		Denials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grameengo_authorization_denials_total",
			Help: "Authorization denials by action and reason",
		}, []string{"action", "reason"}),
		TransitionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "grameengo_application_transition_duration_seconds",
			Help:    "Duration of transition transactions including the audit write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m == nil {
		return
	}
	m.Created.Inc()
}

func (m *Metrics) IncrementTransition(status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementConflict() {
	if m == nil {
		return
	}
	m.Conflicts.Inc()
}

func (m *Metrics) IncrementDenial(action, reason string) {
	if m == nil {
		return
	}
	m.Denials.WithLabelValues(action, reason).Inc()
}

// ObserveTransition records the duration since start.
func (m *Metrics) ObserveTransition(start time.Time) {
	if m == nil {
		return
	}
	m.TransitionDuration.Observe(time.Since(start).Seconds())
}
