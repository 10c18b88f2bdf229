package gate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the prometheus collectors a Gate reports to.
type Metrics struct {
	Decisions *prometheus.CounterVec
	Faults    *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
}

// NewMetrics registers the gate collectors with reg. A nil reg gets a
// private registry, which keeps tests from colliding on the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Metrics{
		Decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gate_decisions_total",
			Help: "Authorization decisions by resource type, ability, reason and outcome.",
		}, []string{"resource_type", "ability", "reason", "outcome"}),

		Faults: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gate_faults_total",
			Help: "Authorization checks that failed without a decision.",
		}, []string{"resource_type", "ability"}),

		Duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gate_check_duration_seconds",
			Help:    "Time spent deciding an authorization check.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"resource_type"}),
	}
}

func (m *Metrics) observe(d Decision, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(d.ResourceType).Observe(elapsed.Seconds())
	if err != nil {
		m.Faults.WithLabelValues(d.ResourceType, string(d.Ability)).Inc()
		return
	}
	m.Decisions.WithLabelValues(d.ResourceType, string(d.Ability), string(d.Reason), d.Outcome()).Inc()
}
