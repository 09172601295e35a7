package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Outcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncOutcome(OutcomeRegistered)
	m.IncOutcome(OutcomeRegistered)
	m.IncOutcome(OutcomeRejectedConflict)
	m.ObserveHash(time.Now())
	m.IncCache("hit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RegistrationOutcomes.WithLabelValues(OutcomeRegistered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationOutcomes.WithLabelValues(OutcomeRejectedConflict)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HashDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncOutcome(OutcomeRegistered)
		m.ObserveHash(time.Now())
		m.ObserveRegister(time.Now())
		m.IncCache("miss")
	})
}

func TestNew_TwiceOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
		New(nil)
	})
}
