package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration module.
// Counters are labeled by actor kind (driver, investor).
type Metrics struct {
	SignupsCompleted *prometheus.CounterVec
	SignupConflicts  *prometheus.CounterVec
	LoginFailures    *prometheus.CounterVec
	SignupDuration   prometheus.Histogram
	LoginDuration    prometheus.Histogram
}

// New creates a new Metrics instance with all registration metrics registered.
func New() *Metrics {
	return &Metrics{
		SignupsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carvest_signups_completed_total",
			Help: "Total number of provisioned signups",
		}, []string{"kind"}),
		SignupConflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carvest_signup_conflicts_total",
			Help: "Total number of signup attempts rejected as duplicates",
		}, []string{"kind"}),
		LoginFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carvest_login_failures_total",
			Help: "Total number of rejected login attempts",
		}, []string{"kind"}),
		SignupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "carvest_signup_duration_seconds",
			Help:    "Duration of signup operations including duplicate checks",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		LoginDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "carvest_login_duration_seconds",
			Help:    "Duration of login operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementSignupCompleted records a provisioned signup for the given kind.
func (m *Metrics) IncrementSignupCompleted(kind string) {
	m.SignupsCompleted.WithLabelValues(kind).Inc()
}

// IncrementSignupConflict records a duplicate signup rejection.
func (m *Metrics) IncrementSignupConflict(kind string) {
	m.SignupConflicts.WithLabelValues(kind).Inc()
}

// IncrementLoginFailure records a rejected login attempt.
func (m *Metrics) IncrementLoginFailure(kind string) {
	m.LoginFailures.WithLabelValues(kind).Inc()
}

// ObserveSignup records the duration of a signup operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSignup(start time.Time) {
	m.SignupDuration.Observe(time.Since(start).Seconds())
}

// ObserveLogin records the duration of a login operation.
func (m *Metrics) ObserveLogin(start time.Time) {
	m.LoginDuration.Observe(time.Since(start).Seconds())
}
