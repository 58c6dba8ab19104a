package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the optional Prometheus instrumentation for a
// SimulationDriver run. A nil *Metrics is valid and every method is a
// no-op on it, so instrumentation stays entirely opt-in.
type Metrics struct {
	trialsTotal    *prometheus.CounterVec
	trialDuration  *prometheus.HistogramVec
	siteAssignment *prometheus.CounterVec
}

// NewMetrics registers the driver's metrics with registry. Pass nil to
// disable instrumentation (SimulationDriver treats a nil *Metrics as a
// no-op and never calls its methods on registration failure).
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	if registry == nil {
		return nil, nil
	}

	m := &Metrics{
		trialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchsim_trials_total",
				Help: "Total number of completed simulation trials, by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		trialDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "matchsim_trial_duration_seconds",
				Help:    "Duration of a single simulation trial.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		siteAssignment: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchsim_site_assignment_total",
				Help: "Number of trials in which the real candidate was assigned to a given site.",
			},
			[]string{"site"},
		),
	}

	if err := registry.Register(m.trialsTotal); err != nil {
		return nil, fmt.Errorf("registering trialsTotal metric: %w", err)
	}
	if err := registry.Register(m.trialDuration); err != nil {
		return nil, fmt.Errorf("registering trialDuration metric: %w", err)
	}
	if err := registry.Register(m.siteAssignment); err != nil {
		return nil, fmt.Errorf("registering siteAssignment metric: %w", err)
	}
	return m, nil
}

func (m *Metrics) ObserveTrial(method string, start time.Time, outcome string) {
	if m == nil {
		return
	}
	m.trialsTotal.WithLabelValues(method, outcome).Inc()
	m.trialDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveAssignment(site string) {
	if m == nil {
		return
	}
	m.siteAssignment.WithLabelValues(site).Inc()
}
