package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration outcomes recorded by RegistrationOutcomes.
const (
	OutcomeRegistered        = "registered"
	OutcomeRejectedInvalid   = "rejected_validation"
	OutcomeRejectedConflict  = "rejected_conflict"
	OutcomeRejectedStorage   = "rejected_storage"
	OutcomeSideEffectFailure = "side_effect_failure"
)

// Metrics provides observability for the registration workflow.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RegistrationOutcomes *prometheus.CounterVec
	HashDuration         prometheus.Histogram
	RegisterDuration     prometheus.Histogram
	CacheLookups         *prometheus.CounterVec
}

// New registers the metrics on reg. A nil reg yields unregistered collectors,
// which keeps tests free of global registry collisions.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthfirst_provider_registrations_total",
			Help: "Provider registration attempts by outcome",
		}, []string{"outcome"}),
		HashDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "healthfirst_password_hash_duration_seconds",
			Help:    "Duration of bcrypt hashing during registration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),
		RegisterDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "healthfirst_register_duration_seconds",
			Help:    "Duration of the full registration workflow",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthfirst_provider_cache_lookups_total",
			Help: "Provider read cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncOutcome(outcome string) {
	if m == nil {
		return
	}
	m.RegistrationOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveHash records the duration of a hash call started at start.
func (m *Metrics) ObserveHash(start time.Time) {
	if m == nil {
		return
	}
	m.HashDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRegister(start time.Time) {
	if m == nil {
		return
	}
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// IncCache records a cache "hit", "miss" or "error".
func (m *Metrics) IncCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
